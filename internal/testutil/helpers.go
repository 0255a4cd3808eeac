package testutil

import (
	"fmt"

	"github.com/roach88/collage/internal/ir"
)

func refNode(name, kind string, args ...string) ir.NodeDoc {
	return ir.NodeDoc{Name: name, Kind: kind, Args: args}
}

func chainName(i int) string {
	return fmt.Sprintf("e%d", i)
}
