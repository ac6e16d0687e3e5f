package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/analyst-eval/internal/codec"
	"github.com/danielpatrickdp/analyst-eval/internal/model"
)

// #region serve-command
func runServe(cmd *cobra.Command, _ []string) error {
	l, err := model.LoadLinear(modelPath)
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listenAddr, err)
	}

	s := grpc.NewServer()
	caps := model.Capabilities{Classifier: l.AsClassifier(), Regressor: l}
	codec.NewModelServer(caps).Register(s)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving model",
		slog.String("addr", lis.Addr().String()),
		slog.String("model", modelPath),
		slog.Int("inputs", l.InputCount()),
		slog.Int("outputs", l.OutputCount()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Serve(lis); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.GracefulStop()
		return nil
	})
	return g.Wait()
}

// #endregion serve-command
