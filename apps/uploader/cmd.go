package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/darasa/core/upload"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	client *upload.Client
	coord  *upload.Coordinator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  send -id ID [-type TYPE] [-purpose PURPOSE] FILE... - upload attachments to a business record")
	fmt.Println("  files -id ID [-type TYPE] [-purpose PURPOSE]        - list the record's committed files")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	sendCmd := flag.NewFlagSet("send", flag.ExitOnError)
	sendType := sendCmd.String("type", "leave", "The business record type.")
	sendID := sendCmd.String("id", "", "The business record id.")
	sendPurpose := sendCmd.String("purpose", upload.PurposeLeaveAttachment, "The bucket purpose to upload under.")

	filesCmd := flag.NewFlagSet("files", flag.ExitOnError)
	filesType := filesCmd.String("type", "leave", "The business record type.")
	filesID := filesCmd.String("id", "", "The business record id.")
	filesPurpose := filesCmd.String("purpose", upload.PurposeLeaveAttachment, "The bucket purpose to list.")

	switch args[1] {
	case "send":
		if err := sendCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *sendID == "" || sendCmd.NArg() == 0 {
			sendCmd.Usage()
			return errHelp
		}
		return cli.send(*sendType, *sendID, *sendPurpose, sendCmd.Args())
	case "files":
		if err := filesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *filesID == "" {
			filesCmd.Usage()
			return errHelp
		}
		return cli.files(*filesType, *filesID, *filesPurpose)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) send(refType, refID, purpose string, paths []string) error {
	pol, err := upload.PolicyFor(purpose)
	if err != nil {
		return err
	}

	files := make([]upload.File, 0, len(paths))
	for _, path := range paths {
		f, err := upload.NewLocalFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	ref := upload.BusinessRef{Type: refType, ID: refID}
	batch := upload.NewBatch(ref, pol, files...)

	// Ctrl-C aborts the transfer in flight and abandons the rest
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	printerDone := make(chan struct{})
	go printProgress(batch, printerDone)

	res, err := cli.coord.Run(ctx, batch)
	close(printerDone)

	fmt.Println(summary(len(batch.Items), res, err))
	if err != nil || res.Failed > 0 {
		return errors.New("upload did not complete")
	}
	return nil
}

// printProgress echoes progress events until done is closed, then drains
// whatever the coordinator buffered before it returned.
func printProgress(b *upload.Batch, done <-chan struct{}) {
	events := b.Progress().Events()
	echo := func(ev upload.ProgressEvent) {
		name := b.Items[ev.Index].File.Name()
		if ev.Message != "" {
			fmt.Printf("  %-30s %-12s %3d%%  %s\n", name, ev.Status, ev.Percent, ev.Message)
			return
		}
		fmt.Printf("  %-30s %-12s %3d%%\n", name, ev.Status, ev.Percent)
	}
	for {
		select {
		case ev := <-events:
			echo(ev)
		case <-done:
			for {
				select {
				case ev := <-events:
					echo(ev)
				default:
					return
				}
			}
		}
	}
}

// summary renders the batch outcome in one line.
func summary(total int, res upload.BatchResult, err error) string {
	var cerr *upload.CompensationError
	switch {
	case errors.As(err, &cerr):
		return fmt.Sprintf("%d of %d file(s) failed - rollback failed, manual cleanup required: %v", res.Failed, total, cerr.Err)
	case err != nil:
		return fmt.Sprintf("upload stopped after %d of %d file(s): %v", res.Total(), total, err)
	case res.Failed > 0:
		return fmt.Sprintf("%d of %d file(s) failed - submission rolled back", res.Failed, total)
	default:
		return fmt.Sprintf("all %d file(s) uploaded", res.Succeeded)
	}
}

func (cli *commandLine) files(refType, refID, purpose string) error {
	recs, err := cli.client.ListFiles(context.Background(), upload.BusinessRef{Type: refType, ID: refID}, purpose)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no committed files")
		return nil
	}
	for _, rec := range recs {
		fmt.Printf("  %s  %-30s %10d  %s\n", rec.ID, rec.OriginalFilename, rec.Size, rec.ContentType)
	}
	return nil
}
