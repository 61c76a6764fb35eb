package main

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/olekukonko/tablewriter"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/core/txpool"
	"github.com/dominant-strategies/go-layerpool/core/types"
)

// report accumulates what happened during a simulation. It listens to the
// pool for added and dropped transactions.
type report struct {
	lock    sync.Mutex
	results map[txpool.AddResult]int
	removed map[txpool.RemovalReason]int
	added   int

	blocks   int
	included int
	invalid  int
}

func newReport() *report {
	return &report{
		results: make(map[txpool.AddResult]int),
		removed: make(map[txpool.RemovalReason]int),
	}
}

func (r *report) OnTransactionAdded(tx *types.Transaction) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.added++
}

func (r *report) OnTransactionDropped(tx *types.Transaction, reason txpool.RemovalReason) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.removed[reason]++
}

func (r *report) addResult(result txpool.AddResult) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.results[result]++
}

func (r *report) addBlock(b blockSummary) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.blocks++
	r.included += b.included
	r.invalid += b.invalid
}

// render prints the submission results, the removals and the final layer
// occupancy of pool.
func (r *report) render(w io.Writer, pool *txpool.TxPool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var (
		results = make([][]string, 0, len(r.results))
		total   int
	)
	for result, count := range r.results {
		results = append(results, []string{result.String(), fmt.Sprint(count)})
		total += count
	}
	sort.Slice(results, func(i, j int) bool { return results[i][0] < results[j][0] })

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Submission result", "Count"})
	table.SetFooter([]string{"Total", fmt.Sprint(total)})
	table.AppendBulk(results)
	table.Render()

	removed := make([][]string, 0, len(r.removed))
	for reason, count := range r.removed {
		removed = append(removed, []string{reason.String(), fmt.Sprint(count)})
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i][0] < removed[j][0] })

	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Removal reason", "Count"})
	table.AppendBulk(removed)
	table.Append([]string{"added events", fmt.Sprint(r.added)})
	table.Append([]string{"blocks", fmt.Sprint(r.blocks)})
	table.Append([]string{"included", fmt.Sprint(r.included)})
	table.Append([]string{"invalid", fmt.Sprint(r.invalid)})
	table.Render()

	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Layer", "Transactions", "Size"})
	for _, stats := range pool.LayerStats() {
		table.Append([]string{stats.Layer.String(), fmt.Sprint(stats.Transactions), common.Bytes(stats.Bytes).String()})
	}
	table.SetFooter([]string{"Pool", fmt.Sprint(pool.Size()), ""})
	table.Render()
}
