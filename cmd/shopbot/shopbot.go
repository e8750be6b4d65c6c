package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/api"
	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/config"
	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/custom"
	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/logcfg"
	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/repository"
	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/service"
)

func main() {

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}
	logcfg.RunLoggerConfig(cfg.EnvLogsLevel)
	logrus.Infof("Bot starting… STRAPI_URL=%s", cfg.EnvStrapiURL)

	bot, err := tgbotapi.NewBotAPI(cfg.EnvBotToken)
	if err != nil {
		logrus.Panic(err)
	}
	customBot := &custom.BotAPICustom{BotAPI: bot}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := repository.NewSessionRepository(cfg.EnvRedisHost, cfg.EnvRedisPort, cfg.EnvRedisPassword)
	if err = sessions.Ping(ctx); err != nil {
		logrus.Fatal(err)
	}

	catalogAPI := api.NewCatalogAPI(cfg.EnvStrapiURL, cfg.EnvStrapiToken)
	cartAPI := api.NewCartAPI(cfg.EnvStrapiURL, cfg.EnvStrapiToken)
	clientsAPI := api.NewClientsAPI(cfg.EnvStrapiURL, cfg.EnvStrapiToken)
	myBot := service.NewShopBot(catalogAPI, cartAPI, clientsAPI, sessions, bot)

	logrus.Infof("Bot API created successfully for %s", bot.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60 //seconds timeout

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		logrus.Infof("Received %v signal, shutting down bot...", sig)
		cancel()
	}()

	// Обновления обрабатываются последовательно: события одного чата никогда
	// не конкурируют друг с другом.
	for update := range customBot.GetUpdatesChan(ctx, updateConfig) {
		update := update
		myBot.UpdateProcessing(ctx, &update)
	}
	logrus.Info("Shutting down main loop...")

}
