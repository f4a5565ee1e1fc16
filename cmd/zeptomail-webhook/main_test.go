package main

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type closeRecorder struct {
	name  string
	err   error
	order *[]string
}

func (c closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestCloseAll(t *testing.T) {
	var order []string
	closers := []io.Closer{
		closeRecorder{name: "tracing", order: &order},
		closeRecorder{name: "metrics", err: errors.New("already closed"), order: &order},
		closeRecorder{name: "server", order: &order},
	}

	closeAll(closers)

	assert.Equal(t, []string{"server", "metrics", "tracing"}, order)
}

func TestCloseAll_PartialStartup(t *testing.T) {
	var order []string

	// only tracing was created before a later startup step failed
	closeAll([]io.Closer{closeRecorder{name: "tracing", order: &order}})

	assert.Equal(t, []string{"tracing"}, order)
}
