package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	scansLimit int
	scansJSON  bool
)

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Manage stored scans",
}

var scansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scans, newest first",
	Args:  cobra.NoArgs,
	RunE:  runScansList,
}

var scansShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show a stored scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runScansShow,
}

var scansDeleteCmd = &cobra.Command{
	Use:   "delete <scan-id>",
	Short: "Delete a stored scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runScansDelete,
}

func init() {
	rootCmd.AddCommand(scansCmd)
	scansCmd.AddCommand(scansListCmd, scansShowCmd, scansDeleteCmd)

	scansCmd.PersistentFlags().BoolVar(&scansJSON, "json", false, "Print JSON")
	scansListCmd.Flags().IntVar(&scansLimit, "limit", 50, "Maximum number of scans to list")
}

func outputFormat() OutputFormat {
	if scansJSON {
		return FormatJSON
	}
	return FormatHuman
}

func runScansList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	headers, err := st.List(context.Background(), scansLimit)
	if err != nil {
		return err
	}
	out, err := FormatResponse(headers, outputFormat())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runScansShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := st.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	out, err := FormatResponse(r, outputFormat())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runScansDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted scan %s\n", args[0])
	return nil
}
