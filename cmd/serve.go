package cmd

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"seriald/internal/hub"
	"seriald/internal/protocol"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the serial bridge daemon",
	Long: `Run the daemon that multiplexes serial device connections behind the
line-delimited JSON protocol.

By default requests are read from stdin and responses written to stdout,
one JSON object per line:

  {"op":"open","args":{"port":"/dev/ttyUSB0","baud":9600}}
  {"op":"read","args":{}}
  {"op":"write","args":{"text":"ping"}}
  {"op":"close"}

With --listen the daemon accepts TCP connections instead, serving one
client at a time. Requests are always processed sequentially; reads return
whatever the background ingestion has buffered and never wait for the
device. SIGINT/SIGTERM or a shutdown request closes every open port before
exiting.`,
	Run: func(cmd *cobra.Command, args []string) {
		reg := hub.NewRegistry(hub.WithBufferLines(viper.GetInt("buffer_lines")))
		srv := protocol.NewServer(reg, log.Logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		defer reg.CloseAll()

		addr := viper.GetString("listen")
		if addr == "" {
			log.Info().Msg("serving protocol on stdio")
			go func() {
				// A signal must unblock a pending stdin read.
				<-ctx.Done()
				os.Stdin.Close()
			}()
			err := srv.Serve(ctx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, protocol.ErrShutdown) && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("server stopped")
				os.Exit(1)
			}
			return
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error().Err(err).Str("addr", addr).Msg("listen failed")
			os.Exit(1)
		}
		defer ln.Close()
		go func() {
			<-ctx.Done()
			ln.Close()
		}()

		log.Info().Str("addr", ln.Addr().String()).Msg("listening")

		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("accept failed")
				return
			}

			// One client at a time keeps the command path strictly
			// serialized; open connections survive across clients.
			log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
			served := make(chan struct{})
			go func() {
				// A signal must unblock a read pending on this client.
				select {
				case <-ctx.Done():
					conn.Close()
				case <-served:
				}
			}()
			err = srv.Serve(ctx, conn, conn)
			close(served)
			conn.Close()
			log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client disconnected")

			if errors.Is(err, protocol.ErrShutdown) || ctx.Err() != nil {
				return
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "TCP listen address (default: stdio)")
	serveCmd.Flags().Int("buffer-lines", hub.DefaultBufferLines, "Max buffered lines per port")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("buffer_lines", serveCmd.Flags().Lookup("buffer-lines"))
}
