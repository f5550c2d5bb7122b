package commands

import (
	"github.com/spf13/cobra"

	"github.com/wttnguyen/draftolio/internal/logger"
	"github.com/wttnguyen/draftolio/internal/mockrso"
)

// NewMockRSOCmd creates the mock-rso command
func NewMockRSOCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mock-rso",
		Short: "Run a mock Draftolio backend for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			zlog := logger.New("debug", "console")
			return mockrso.New(zlog).Start(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	return cmd
}
