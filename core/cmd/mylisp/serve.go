package main

import (
	"os"
	"os/signal"
	"syscall"

	mylisp "github.com/NKalu/myLISP/core"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve one shared environment over a socket",
	Long: `Start the core server. Clients send length-prefixed JSON requests
(see "mylisp send") and every request is applied to the same environment
in arrival order.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("network", "", "Listener network: unix or tcp")
	serveCmd.Flags().String("address", "", "Socket path or host:port")
	serveCmd.Flags().Float64("rate", 0, "Requests per second allowed per connection (0 = unlimited)")
	serveCmd.Flags().Int("burst", 0, "Request burst allowed per connection")
	serveCmd.Flags().Int("max-traces", 0, "Evaluation traces kept in memory")
	viper.BindPFlag("server.network", serveCmd.Flags().Lookup("network"))
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
	viper.BindPFlag("server.rate", serveCmd.Flags().Lookup("rate"))
	viper.BindPFlag("server.burst", serveCmd.Flags().Lookup("burst"))
	viper.BindPFlag("server.max_traces", serveCmd.Flags().Lookup("max-traces"))
}

func runServe(cmd *cobra.Command, args []string) error {
	env := mylisp.NewGlobalEnv()
	var ev mylisp.Evaluator

	session, err := openSession(&ev, env)
	if err != nil {
		return err
	}
	if session != nil {
		defer session.Close()
	}

	core, err := mylisp.NewCore(env, mylisp.Options{
		Network:   viper.GetString("server.network"),
		Address:   viper.GetString("server.address"),
		MaxTraces: viper.GetInt("server.max_traces"),
		Rate:      viper.GetFloat64("server.rate"),
		Burst:     viper.GetInt("server.burst"),
		Session:   session,
	})
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.WithField("signal", sig.String()).Info("Shutting down")
		core.Shutdown()
	}()

	log.WithFields(log.Fields{
		"network": viper.GetString("server.network"),
		"address": core.Addr().String(),
		"symbols": env.Len(),
	}).Info("mylisp core listening")
	core.Run()
	return nil
}
