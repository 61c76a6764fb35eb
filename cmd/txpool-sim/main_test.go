package main

import (
	"os"
	"testing"

	"github.com/dominant-strategies/go-layerpool/log"
)

func TestMain(m *testing.M) {
	log.ConfigureLogger(log.WithNullLogger())
	os.Exit(m.Run())
}
