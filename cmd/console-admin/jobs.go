package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ragforge/console/internal/backend"
	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
	"github.com/ragforge/console/internal/jobwatch"
)

const defaultRequestTimeout = 30 * time.Second

type startOptions struct {
	Kind   model.JobKind
	Params map[string]any
	Query  string
	Watch  bool
}

type jobRefOptions struct {
	Kind  model.JobKind
	JobID string
	Query string
}

func newBackendClient(cmdCtx *commandContext) (*backend.Client, error) {
	return backend.NewClient(backend.Config{
		BaseURL: cmdCtx.Config.Backend.BaseURL,
		Timeout: cmdCtx.Config.Backend.RequestTimeout,
	})
}

func runStart(cmdCtx *commandContext, args []string) error {
	opts, err := parseStartFlags(args)
	if err != nil {
		return err
	}

	client, err := newBackendClient(cmdCtx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultRequestTimeout)
	defer cancel()

	resp, err := client.Start(ctx, model.StartJobRequest{Kind: opts.Kind, Params: opts.Params})
	if err != nil {
		if apperrors.IsAlreadyRunning(err) && apperrors.GetJobID(err) != "" {
			cmdCtx.Logger.Warn("job already running; attaching",
				"kind", string(opts.Kind),
				"job_id", apperrors.GetJobID(err))
			resp.JobID = apperrors.GetJobID(err)
		} else {
			return err
		}
	}

	if !opts.Watch {
		return printJSON(os.Stdout, resp, opts.Query)
	}
	return watchJob(cmdCtx, client, opts.Kind, resp.JobID, opts.Query)
}

func runStatus(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobRefFlags("status", args)
	if err != nil {
		return err
	}

	client, err := newBackendClient(cmdCtx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultRequestTimeout)
	defer cancel()

	snap, err := client.Status(ctx, opts.Kind, opts.JobID)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, snap, opts.Query)
}

func runCancel(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobRefFlags("cancel", args)
	if err != nil {
		return err
	}

	client, err := newBackendClient(cmdCtx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultRequestTimeout)
	defer cancel()

	ok, err := client.Cancel(ctx, opts.Kind, opts.JobID)
	if err != nil {
		return err
	}
	if !ok {
		cmdCtx.Logger.Warn("backend did not acknowledge cancel", "job_id", opts.JobID)
	}
	return printJSON(os.Stdout, model.CancelJobResponse{OK: ok}, opts.Query)
}

func runWatch(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobRefFlags("watch", args)
	if err != nil {
		return err
	}

	client, err := newBackendClient(cmdCtx)
	if err != nil {
		return err
	}
	return watchJob(cmdCtx, client, opts.Kind, opts.JobID, opts.Query)
}

// watchJob streams snapshots to stdout, one JSON document per update, until
// the job reaches a terminal state. A failed job makes the command fail.
func watchJob(cmdCtx *commandContext, client *backend.Client, kind model.JobKind, jobID, query string) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{}
	watcher, err := jobwatch.Start(ctx, jobwatch.Options{
		JobID: jobID,
		Kind:  kind,
		Stream: &jobwatch.StreamTransport{
			URL:    client.StreamURL(kind, jobID),
			Client: httpClient,
			Logger: cmdCtx.Logger,
		},
		Poll: &jobwatch.PollTransport{
			URL:      client.StatusURL(kind, jobID),
			Client:   httpClient,
			Interval: cmdCtx.Config.Watch.PollInterval,
			Logger:   cmdCtx.Logger,
		},
		StaleAfter: cmdCtx.Config.Watch.StaleAfter,
		Logger:     cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("start watch: %w", err)
	}

	var last model.Job
	for job := range watcher.Updates() {
		last = job
		if printErr := printJSON(os.Stdout, job, query); printErr != nil {
			watcher.Stop()
			<-watcher.Done()
			return printErr
		}
	}

	if ctx.Err() != nil && !last.Status.Terminal() {
		return errors.New("watch interrupted")
	}
	if last.Status == model.JobStatusError {
		return fmt.Errorf("job %s failed: %s", jobID, last.Error)
	}
	return nil
}

func parseStartFlags(args []string) (startOptions, error) {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts    startOptions
		kindRaw string
		params  string
	)
	fs.StringVar(&kindRaw, "kind", "", "Job kind: cards-build, index-run, or reranker-train (required)")
	fs.StringVar(&params, "params", "", "Job parameters as a JSON object")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the output")
	fs.BoolVar(&opts.Watch, "watch", false, "Stream progress after starting")

	if err := fs.Parse(args); err != nil {
		return startOptions{}, err
	}

	if err := opts.Kind.UnmarshalText([]byte(kindRaw)); err != nil {
		return startOptions{}, fmt.Errorf("--kind: %w", err)
	}
	if params != "" {
		if err := json.Unmarshal([]byte(params), &opts.Params); err != nil {
			return startOptions{}, fmt.Errorf("--params must be a JSON object: %w", err)
		}
	}
	return opts, nil
}

func parseJobRefFlags(name string, args []string) (jobRefOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts    jobRefOptions
		kindRaw string
	)
	fs.StringVar(&kindRaw, "kind", "", "Job kind: cards-build, index-run, or reranker-train (required)")
	fs.StringVar(&opts.JobID, "job-id", "", "Job ID (required)")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the output")

	if err := fs.Parse(args); err != nil {
		return jobRefOptions{}, err
	}

	if err := opts.Kind.UnmarshalText([]byte(kindRaw)); err != nil {
		return jobRefOptions{}, fmt.Errorf("--kind: %w", err)
	}
	opts.JobID = strings.TrimSpace(opts.JobID)
	if opts.JobID == "" {
		return jobRefOptions{}, errors.New("--job-id is required")
	}
	return opts, nil
}
