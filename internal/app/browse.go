package app

import (
	"context"

	"github.com/blackwell-systems/bookcase/internal/tui"
)

// runBrowser opens the interactive browser. The initial load happens inside
// the program so the list appears with a spinner instead of a blank wait.
func runBrowser(ctx context.Context) error {
	logger, closeLog, err := openDebugLog(flagDebugLog)
	if err != nil {
		return err
	}
	defer closeLog()

	sess, err := newSession()
	if err != nil {
		return err
	}
	logger.Debug("browser starting", "api", cfg.API.BaseURL, "lookup", cfg.Lookup.BaseURL)
	return tui.Run(tui.Options{
		Context:       ctx,
		Session:       sess,
		ToastDuration: cfg.UI.ToastDuration(),
		Logger:        logger,
	})
}
