package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hubbleplay/internal/httpclient"
	"hubbleplay/internal/model"
)

var errExchangeFailed = errors.New("exchange failed")

var (
	sendMethod      string
	sendURL         string
	sendBody        string
	sendHeaders     []string
	sendShowHeaders bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one request without the TUI",
	Long: `Send the selected endpoint's request and print the response. The status
line and headers go to stderr, the body to stdout. Streamed bodies are
printed as they arrive.

Examples:
  hubbleplay send --api tx --endpoint balance --api-key $HUBBLE_API_KEY
  hubbleplay send --api text2sql --endpoint text2sql-conversion --body @query.json
  hubbleplay send --url https://api.hubble-rpc.xyz/agent/api/v2/status --method GET
  hubbleplay send --api tx --endpoint tx-list --header X-Trace=1 --show-headers`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	f := sendCmd.Flags()
	f.StringVar(&sendMethod, "method", "", "override the HTTP method")
	f.StringVar(&sendURL, "url", "", "override the request URL")
	f.StringVar(&sendBody, "body", "", "request body, or @file to read it from a file (@- for stdin)")
	f.StringArrayVar(&sendHeaders, "header", nil, "extra header as name=value, repeatable")
	f.BoolVar(&sendShowHeaders, "show-headers", false, "print response headers")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extend, err := openAPIExtension(ctx, cfg)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg, extend)
	if err != nil {
		return err
	}
	session, err := newSession(cfg, cat, log)
	if err != nil {
		return err
	}
	defer session.Close()

	if sendMethod != "" {
		m, ok := model.ParseMethod(sendMethod)
		if !ok {
			return fmt.Errorf("unsupported method %q", sendMethod)
		}
		if err := session.SetMethod(m); err != nil {
			return err
		}
	}
	if sendURL != "" {
		session.SetURL(sendURL)
	}
	if sendBody != "" {
		body, err := readBody(sendBody, cmd.InOrStdin())
		if err != nil {
			return err
		}
		session.SetBodyText(body)
	}
	for _, h := range sendHeaders {
		name, value, err := parseHeaderFlag(h)
		if err != nil {
			return err
		}
		if err := session.SetHeader(name, value); err != nil {
			return err
		}
	}

	p := &exchangePrinter{out: cmd.OutOrStdout(), meta: cmd.ErrOrStderr(), showHeaders: sendShowHeaders}
	session.Exchange().OnChange(p.onResult)
	return p.finish(session.Send(ctx))
}

// readBody resolves the --body flag.
func readBody(arg string, stdin io.Reader) (string, error) {
	if !strings.HasPrefix(arg, "@") {
		return arg, nil
	}
	var (
		b   []byte
		err error
	)
	if path := arg[1:]; path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func parseHeaderFlag(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid header %q, want name=value", s)
	}
	return name, strings.TrimSpace(value), nil
}

// exchangePrinter writes the results of one exchange as they are
// published. Streamed bodies are written incrementally.
type exchangePrinter struct {
	out         io.Writer
	meta        io.Writer
	showHeaders bool

	statusDone bool
	written    int
}

func (p *exchangePrinter) onResult(r httpclient.Result) {
	if !p.statusDone && r.StatusLine != "" {
		p.statusDone = true
		fmt.Fprintln(p.meta, statusStyle(r.StatusCode).Render(r.StatusLine))
		if p.showHeaders && len(r.Headers) > 0 {
			fmt.Fprintln(p.meta, mutedStyle.Render(r.HeadersText()))
		}
	}
	if r.State == httpclient.StateStreaming {
		p.writeBody(r.Body)
	}
}

func (p *exchangePrinter) finish(r httpclient.Result) error {
	p.onResult(r)

	if r.State == httpclient.StateFailed {
		if p.written > 0 {
			fmt.Fprintln(p.out)
		}
		fmt.Fprintln(p.meta, errorStyle.Render(r.Body))
		return errExchangeFailed
	}

	p.writeBody(r.Body)
	if p.written > 0 && !strings.HasSuffix(r.Body, "\n") {
		fmt.Fprintln(p.out)
	}
	return nil
}

// writeBody writes the part of body not yet written. Bodies only grow
// while streaming.
func (p *exchangePrinter) writeBody(body string) {
	if len(body) <= p.written {
		return
	}
	_, _ = io.WriteString(p.out, body[p.written:])
	p.written = len(body)
}
