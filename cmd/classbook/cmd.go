package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/lojf/classbook/internal/backup"
	"github.com/lojf/classbook/internal/report"
	"github.com/lojf/classbook/internal/settings"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	settings *settings.Resolver
	backup   *backup.Coordinator
	reports  *report.Reporter
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  export [-out FILE]       - write the store as JSON (stdout by default)")
	fmt.Fprintln(cli.out, "  import -in FILE          - replace the store with an export")
	fmt.Fprintln(cli.out, "  backup                   - snapshot the store file")
	fmt.Fprintln(cli.out, "  backups                  - list snapshots, oldest first")
	fmt.Fprintln(cli.out, "  reset-defaults           - restore factory settings")
	fmt.Fprintln(cli.out, "  summary -teacher NAME    - monthly hours and pay")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportOut := exportCmd.String("out", "", "Destination file. Defaults to stdout.")
	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importIn := importCmd.String("in", "", "An export produced by the export command.")
	summaryCmd := flag.NewFlagSet("summary", flag.ContinueOnError)
	summaryTeacher := summaryCmd.String("teacher", "", "Teacher name as stored on the classes.")

	switch args[1] {
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.export(ctx, *exportOut)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importIn == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFile(ctx, *importIn)
	case "backup":
		path, err := cli.backup.Snapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, path)
		return nil
	case "backups":
		files, err := cli.backup.List()
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cli.out, f)
		}
		return nil
	case "reset-defaults":
		return cli.settings.Reset(ctx)
	case "summary":
		if err := summaryCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *summaryTeacher == "" {
			summaryCmd.Usage()
			return errHelp
		}
		return cli.summary(ctx, *summaryTeacher)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) export(ctx context.Context, path string) error {
	doc, err := cli.backup.Export(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		return backup.WriteJSON(cli.out, doc)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := backup.WriteJSON(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (cli *commandLine) importFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	doc, err := backup.ReadJSON(f)
	if err != nil {
		return err
	}
	if err := cli.backup.Import(ctx, doc); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "imported %d classes\n", len(doc.Classes))
	return nil
}

func (cli *commandLine) summary(ctx context.Context, teacher string) error {
	s, err := cli.reports.MonthlySummary(ctx, teacher)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tHOURS\tTRAVEL\tBONUS\tPAY\tNOTES")
	for _, m := range s.Months() {
		row := s[m]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", m, row.TotalHours, row.TotalTravel, row.TotalBonus, row.TotalPay, row.Notes)
	}
	return tw.Flush()
}
