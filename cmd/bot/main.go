package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/farmbot/gofarm/internal/controlplane/server"
	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/internal/services"
	"github.com/farmbot/gofarm/pkg/config"
	"github.com/farmbot/gofarm/pkg/logger"
	"github.com/farmbot/gofarm/pkg/persistence"
	"github.com/farmbot/gofarm/pkg/sdk/api"
	"github.com/farmbot/gofarm/pkg/wallet"
)

func firstExistingFile(paths ...string) (string, bool) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	modeOverride := flag.String("mode", "", "覆盖配置中的运行模式: claim / claim-transfer / register")
	flag.Parse()

	// 先加载 .env（没有也不报错），用默认配置起日志；
	// 配置加载完成后再按配置重建日志
	_ = godotenv.Load()
	if err := logger.InitDefault(); err != nil {
		panic(fmt.Sprintf("初始化日志失败: %v", err))
	}

	if *configPath == "" {
		if p, ok := firstExistingFile("yml/config.yaml", "config.yaml", "config.json"); ok {
			*configPath = p
		} else {
			logrus.Error("未找到配置文件，请用 -config 指定")
			os.Exit(1)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}
	if *modeOverride != "" {
		cfg.Mode = *modeOverride
		if err := cfg.Validate(); err != nil {
			logrus.Errorf("配置校验失败: %v", err)
			os.Exit(1)
		}
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
	}); err != nil {
		panic(fmt.Sprintf("初始化日志失败: %v", err))
	}
	logrus.Infof("使用配置文件: %s", *configPath)
	if f := logger.GetCurrentLogFile(); f != "" {
		logrus.Infof("日志文件: %s", f)
	}

	// 账户列表是唯一的硬前置条件：一个可用地址都没有就没有继续的意义
	accounts, skipped, err := config.LoadAccounts(cfg.AccountsFile)
	if err != nil {
		logrus.Errorf("加载账户列表失败: %v", err)
		os.Exit(1)
	}
	if skipped > 0 {
		logrus.Warnf("账户文件中有 %d 行非法地址被跳过", skipped)
	}
	if len(accounts) == 0 {
		logrus.Errorf("账户文件 %s 中没有可用地址", cfg.AccountsFile)
		os.Exit(1)
	}

	proxies, err := config.LoadProxies(cfg.ProxiesFile)
	if err != nil {
		logrus.Errorf("加载代理列表失败: %v", err)
		os.Exit(1)
	}
	logrus.Infof("已加载 %d 个账户，%d 个代理", len(accounts), len(proxies))

	// 持久化：设备注册表 + 钱包记录都落在 DataDir 下的 JSON 文档
	persist := persistence.NewJSONFileService(cfg.DataDir)
	registry, err := services.NewDeviceRegistry(persist.NewStore("devices"))
	if err != nil {
		logrus.Errorf("加载设备注册表失败: %v", err)
		os.Exit(1)
	}
	logrus.Infof("设备注册表已加载：%d 条记录", registry.Size())

	wallets, err := wallet.NewStore(persist.NewStore("wallets"), nil)
	if err != nil {
		logrus.Errorf("加载钱包记录失败: %v", err)
		os.Exit(1)
	}

	apiClient := api.NewClient(cfg.BaseURL, cfg.Origin)
	sessions := services.NewSessionService(apiClient, registry)
	claims := services.NewClaimService(apiClient)
	transfers := services.NewTransferService(apiClient)

	runner := services.NewRunner(services.RunnerConfig{
		Mode:              services.Mode(cfg.Mode),
		InterAccountDelay: time.Duration(cfg.InterAccountDelaySeconds) * time.Second,
		PreClaimDelayMin:  time.Duration(cfg.PreClaimDelayMinSeconds) * time.Second,
		PreClaimDelayMax:  time.Duration(cfg.PreClaimDelayMaxSeconds) * time.Second,
		TransferTo:        cfg.TransferTo,
		ReferralCode:      cfg.ReferralCode,
		Handles:           wallets.HandleFor,
	}, sessions, claims, transfers, proxies)

	// 可选：把运行汇总写进控制面的 sqlite
	if cfg.RunHistoryDB != "" {
		repo, err := server.OpenRunsRepo(filepath.Clean(cfg.RunHistoryDB))
		if err != nil {
			logrus.Warnf("打开运行历史数据库失败（本轮不记录）: %v", err)
		} else {
			defer repo.Close()
			runner.SetSink(repo)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logrus.Warnf("收到信号 %v，当前账户处理完后退出", sig)
		cancel()
	}()

	list := make([]*domain.Account, 0, len(accounts))
	for _, addr := range accounts {
		list = append(list, &domain.Account{Address: addr})
	}

	// 账户级失败只计入汇总，不影响退出码；
	// 唯一的致命退出条件是启动时没有可用账户
	runner.Run(ctx, list)
}
