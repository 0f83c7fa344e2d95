// Package serve exposes the marketplace read API over JSON-RPC for browser
// frontends.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 5 * time.Second

// NewHandler returns the JSON-RPC server for api wrapped in a CORS handler
// accepting the given origins.
func NewHandler(api *API, origins []string) (*rpc.Server, http.Handler, error) {
	server := rpc.NewServer()
	if err := server.RegisterName(Namespace, api); err != nil {
		server.Stop()
		return nil, nil, fmt.Errorf("failed to register %s api: %w", Namespace, err)
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return server, c.Handler(server), nil
}

func Serve(opts *session.Options) *cli.Command {
	cfg := struct {
		addr    string
		origins cli.StringSlice
	}{}
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the marketplace read API over JSON-RPC",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "Listen address",
				Value:       "localhost:8645",
				EnvVars:     []string{"ARTISAN_API_ADDR"},
				Destination: &cfg.addr,
			},
			&cli.StringSliceFlag{
				Name:        "cors",
				Usage:       "Origins allowed to call the API",
				Value:       cli.NewStringSlice("*"),
				EnvVars:     []string{"ARTISAN_API_CORS"},
				Destination: &cfg.origins,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			rpcServer, handler, err := NewHandler(NewAPI(s.App), cfg.origins.Value())
			if err != nil {
				return err
			}
			defer rpcServer.Stop()

			listener, err := net.Listen("tcp", cfg.addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.addr, err)
			}

			srv := &http.Server{
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Serve(listener)
			}()
			log.Info("serving market api", "addr", listener.Addr(), "account", s.Wallet.Session().Address)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("api server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down api server: %w", err)
			}
			log.Info("market api stopped")
			return nil
		},
	}
}
