package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/worktime/internal/store"
)

var flagPathLock bool

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where intervals are stored",
	Args:  cobra.NoArgs,
	RunE:  runPath,
}

func init() {
	pathCmd.Flags().BoolVar(&flagPathLock, "lock", false, "Also show the last holder of the data directory lock")
	rootCmd.AddCommand(pathCmd)
}

func runPath(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	fmt.Println(st.Location(time.Now().UTC().Year()))
	if flagQuiet {
		return nil
	}

	years, err := st.Years(context.Background())
	if err != nil {
		return fmt.Errorf("listing years: %w", err)
	}
	for _, y := range years {
		notice("%d  %s", y, st.Location(y))
	}
	if flagPathLock {
		owner, err := store.Owner(st.Dir())
		if err != nil {
			return fmt.Errorf("reading lock: %w", err)
		}
		if owner == "" {
			owner = "none"
		}
		fmt.Printf("lock: %s\n", owner)
	}
	return nil
}
