package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/blackwell-systems/bookcase/internal/form"
	"github.com/blackwell-systems/bookcase/internal/library"
	"github.com/blackwell-systems/bookcase/internal/lookup"
	"github.com/blackwell-systems/bookcase/internal/store"
)

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}

func printField(label, value string) {
	fmt.Printf("  %-14s %s\n", color.CyanString(label+":"), value)
}

func userAgent() string {
	return "bookcase/" + appVersion
}

// newStoreClient builds the book store client from the loaded config.
func newStoreClient() (*store.Client, error) {
	return store.New(cfg.API.BaseURL, store.Options{
		Timeout:   cfg.API.Timeout,
		UserAgent: userAgent(),
	})
}

// newSession wires a session to the configured store and lookup service.
func newSession() (*library.Session, error) {
	client, err := newStoreClient()
	if err != nil {
		return nil, err
	}
	finder := lookup.New(cfg.Lookup.BaseURL, cfg.Lookup.Timeout, nil).WithUserAgent(userAgent())
	return library.New(client, finder), nil
}

// loadSession returns a session holding the current book list, which the
// duplicate checks rely on.
func loadSession(ctx context.Context) (*library.Session, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}
	job, err := sess.BeginLoad()
	if err != nil {
		return nil, err
	}
	if _, err := sess.Run(ctx, job); err != nil {
		return nil, fmt.Errorf("loading books from %s: %w", cfg.API.BaseURL, err)
	}
	return sess, nil
}

// report prints the notice of a finished action and turns a failure into
// the command error.
func report(n library.Notice, err error) error {
	if err != nil {
		printFieldErrors(err)
		if n.Empty() {
			return err
		}
		return fmt.Errorf("%s: %w", n.Text, err)
	}
	switch n.Level {
	case library.Warning:
		warn("%s", n.Text)
	case library.Error:
		return errors.New(n.Text)
	default:
		ok("%s", n.Text)
	}
	return nil
}

// refused turns a Begin error into a command error, listing field errors.
func refused(err error) error {
	if printFieldErrors(err) {
		return errors.New(library.MsgInvalid)
	}
	return errors.New(library.NoticeFor(err).Text)
}

// printFieldErrors lists validation messages, from the local validator or
// from a server rejection. It reports whether anything was printed.
func printFieldErrors(err error) bool {
	fields := map[string]string{}
	var ferrs form.Errors
	var rej *store.RejectedError
	switch {
	case errors.As(err, &ferrs):
		fields = ferrs
	case errors.As(err, &rej):
		fields = rej.Fields
	}
	if len(fields) == 0 {
		return false
	}
	for _, f := range form.Errors(fields).Fields() {
		fmt.Fprintf(os.Stderr, "  %s %s\n", color.RedString(f+":"), fields[f])
	}
	return true
}

// confirm asks a yes/no question on in. Anything but y/yes is a no.
func confirm(in io.Reader, prompt string) bool {
	fmt.Printf("%s (y/N): ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
