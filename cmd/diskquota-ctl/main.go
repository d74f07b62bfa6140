// Command diskquota-ctl is the CLI for the §6 management functions:
// setting quotas, pausing/resuming enforcement, seeding table_size, and
// waiting for a worker epoch boundary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/segmentdb/diskquota/pkg/client"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var coordinatorAddr string

var rootCmd = &cobra.Command{
	Use:   "diskquota-ctl",
	Short: "Manage diskquota quotas and enforcement state",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&coordinatorAddr, "coordinator", "127.0.0.1:17432", "Coordinator ManagementService address")
	rootCmd.AddCommand(setSchemaQuotaCmd)
	rootCmd.AddCommand(setRoleQuotaCmd)
	rootCmd.AddCommand(setSchemaTablespaceQuotaCmd)
	rootCmd.AddCommand(setRoleTablespaceQuotaCmd)
	rootCmd.AddCommand(setPerSegmentQuotaCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(initTableSizeTableCmd)
	rootCmd.AddCommand(waitForWorkerNewEpochCmd)
}

func withClient(fn func(ctx context.Context, c *client.Client) error) error {
	c, err := client.New(coordinatorAddr)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(context.Background(), c)
}

var setSchemaQuotaCmd = &cobra.Command{
	Use:   "set-schema-quota SCHEMA SIZE",
	Short: "Set a schema-level quota (e.g. 10GB, -1 for no limit, 0 to deny all)",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.SetSchemaQuota(ctx, args[0], args[1])
		})
	},
}

var setRoleQuotaCmd = &cobra.Command{
	Use:   "set-role-quota ROLE SIZE",
	Short: "Set a role-level quota",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.SetRoleQuota(ctx, args[0], args[1])
		})
	},
}

var setSchemaTablespaceQuotaCmd = &cobra.Command{
	Use:   "set-schema-tablespace-quota SCHEMA TABLESPACE SIZE",
	Short: "Set a (schema, tablespace) quota",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.SetSchemaTablespaceQuota(ctx, args[0], args[1], args[2])
		})
	},
}

var setRoleTablespaceQuotaCmd = &cobra.Command{
	Use:   "set-role-tablespace-quota ROLE TABLESPACE SIZE",
	Short: "Set a (role, tablespace) quota",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.SetRoleTablespaceQuota(ctx, args[0], args[1], args[2])
		})
	},
}

var perSegmentRatio float64

var setPerSegmentQuotaCmd = &cobra.Command{
	Use:   "set-per-segment-quota TARGET",
	Short: "Set the seg_ratio balance threshold for an existing quota target",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.SetPerSegmentQuota(ctx, args[0], perSegmentRatio)
		})
	},
}

func init() {
	setPerSegmentQuotaCmd.Flags().Float64Var(&perSegmentRatio, "ratio", 0.1, "Fraction of the total limit a single segment may exceed before flagging imbalance")
}

var pauseCmd = &cobra.Command{
	Use:   "pause DATABASE_ID",
	Short: "Suspend enforcement for a database without clearing its blocklist",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseDatabaseID(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.Pause(ctx, id)
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume DATABASE_ID",
	Short: "Resume enforcement for a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseDatabaseID(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.Resume(ctx, id)
		})
	},
}

var initTableSizeTableCmd = &cobra.Command{
	Use:   "init-table-size-table DATABASE_ID",
	Short: "Report the number of rows stored in table_size",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseDatabaseID(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			rows, err := c.InitTableSizeTable(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%d table_size rows\n", rows)
			return nil
		})
	},
}

var sinceEpoch int64

var waitForWorkerNewEpochCmd = &cobra.Command{
	Use:   "wait-for-worker-new-epoch DATABASE_ID",
	Short: "Block until the database's worker completes an epoch past --since-epoch",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseDatabaseID(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			epoch, err := c.WaitForWorkerNewEpoch(ctx, id, sinceEpoch)
			if err != nil {
				return err
			}
			fmt.Printf("epoch %d\n", epoch)
			return nil
		})
	},
}

func init() {
	waitForWorkerNewEpochCmd.Flags().Int64Var(&sinceEpoch, "since-epoch", 0, "Wait for an epoch past this value")
}

func parseDatabaseID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid database id %q: %w", s, err)
	}
	return id, nil
}
