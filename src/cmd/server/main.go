package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/idb-pricer/src/api/router"
	"github.com/jiaming2012/idb-pricer/src/marketdata"
	"github.com/jiaming2012/idb-pricer/src/orderstore"
	"github.com/jiaming2012/idb-pricer/src/utils"
)

type RunArgs struct {
	Port      string
	UseMock   bool
	OrdersDir string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/server/main.go --port 8000",
	Short: "Serve the order parsing and structure pricing API",
	Run: func(cmd *cobra.Command, args []string) {
		port, err := cmd.Flags().GetString("port")
		if err != nil {
			log.Fatalf("error getting port: %v", err)
		}

		useMock, err := cmd.Flags().GetBool("mock")
		if err != nil {
			log.Fatalf("error getting mock: %v", err)
		}

		ordersDir, err := cmd.Flags().GetString("orders-dir")
		if err != nil {
			log.Fatalf("error getting orders-dir: %v", err)
		}

		if err := Run(RunArgs{Port: port, UseMock: useMock, OrdersDir: ordersDir}); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func Run(args RunArgs) error {
	if err := utils.InitEnvironmentVariables(); err != nil {
		return fmt.Errorf("Run: load environment: %w", err)
	}

	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(level)
	}

	client := marketdata.NewClient(args.UseMock)
	if err := client.Connect(); err != nil {
		return fmt.Errorf("Run: connect market data: %w", err)
	}
	defer client.Disconnect()

	store, err := orderstore.NewStore(args.OrdersDir)
	if err != nil {
		return fmt.Errorf("Run: create order store: %w", err)
	}

	r := mux.NewRouter()
	router.SetupHandler(r.PathPrefix("/api").Subrouter(), client, store)

	srv := &http.Server{
		Handler: r,
		Addr:    fmt.Sprintf(":%s", args.Port),
	}

	// Start web server
	go func() {
		log.Infof("listening on :%s", args.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Panicf("Run: serve: %v", err)
		}
	}()

	// Create channel for shutdown signals.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	log.Info("Main: init complete")

	// Block here until program is shut down
	<-stop

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("Run: shutdown: %w", err)
	}

	log.Info("Main: gracefully stopped!")
	return nil
}

func main() {
	runCmd.PersistentFlags().String("port", "8000", "Port for the API server to listen on.")
	runCmd.PersistentFlags().Bool("mock", false, "Force the deterministic mock market data client.")
	runCmd.PersistentFlags().String("orders-dir", "", "Directory for the order blotter files. Defaults to ~/.idb-pricer.")

	runCmd.Execute()
}
