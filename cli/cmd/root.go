package cmd

import (
	"net/http"
	"os"

	"github.com/devboardui/devboard/api"
	"github.com/devboardui/devboard/db/factory"
	"github.com/devboardui/devboard/services/ai"
	"github.com/devboardui/devboard/services/notify"
	"github.com/devboardui/devboard/services/project"
	"github.com/devboardui/devboard/services/realtime"
	"github.com/devboardui/devboard/services/session"
	"github.com/devboardui/devboard/util"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "devboard",
	Short: "Devboard - collaborative project workspace server",
	Run: func(cmd *cobra.Command, args []string) {
		runService()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path")
}

func runService() {
	if err := util.LoadConfig(configPath); err != nil {
		log.WithError(err).Fatal("cannot load configuration")
	}
	util.ConfigureLogging()

	store, err := factory.CreateStore(util.Config.Db)
	if err != nil {
		log.WithError(err).Fatal("cannot create store")
	}
	if err = store.Connect(); err != nil {
		log.WithError(err).Fatal("cannot connect to store")
	}
	defer store.Close()

	tree := realtime.NewFileTreeStore()
	registry := realtime.NewSessionRegistry(tree, store.GetChatMessages, util.Config.ChatHistoryLimit)
	channel := realtime.NewEventChannel(registry, tree)

	if util.Config.Redis != nil {
		bridge := realtime.NewRedisEventBridge(*util.Config.Redis)
		if err = channel.AttachBridge(bridge); err != nil {
			log.WithError(err).Fatal("cannot attach redis event bridge")
		}
		defer bridge.Close()
		log.Info("redis event bridge attached")
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if util.Config.NotificationWebhook != "" {
		notifier = notify.NewWebhookNotifier(util.Config.NotificationWebhook)
	}

	var responder *ai.Responder
	if util.Config.Ai.Endpoint != "" {
		responder = ai.NewResponder(ai.NewHTTPTextGenerator(util.Config.Ai.Endpoint), channel, store)
		log.Info("AI responder enabled")
	}

	inviteService := project.NewInviteService(store, channel, notifier)
	projectService := project.NewProjectService(store, tree)
	sessionService := session.NewService(store, registry, channel, inviteService, responder)

	janitor, err := realtime.StartJanitor(registry, "")
	if err != nil {
		log.WithError(err).Fatal("cannot start session janitor")
	}
	defer janitor.Stop()

	router := api.Route(api.Services{
		Store:          store,
		ProjectService: projectService,
		InviteService:  inviteService,
		SessionService: sessionService,
		FileTree:       tree,
	})

	log.WithField("port", util.Config.Port).Info("server starting")

	if err := http.ListenAndServe(util.Config.Port, api.WrapLogging(router)); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
