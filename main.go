package main

import (
	"flag"
	"log"
	"strings"

	"fixedpay/config"
	"fixedpay/database"
	"fixedpay/middleware"
	"fixedpay/router"
	"fixedpay/store"

	"github.com/shopspring/decimal"
)

// @title 固定支出管家 API
// @version 1.0
// @description 个人月度固定支出管理 API，支持固定支出登记、按月缴费状态跟踪、结算方式统计和数据导出
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		log.Println("固定支出管家 v1.0.0")
		return
	}

	// 金额序列化为 JSON 数字而非字符串
	decimal.MarshalJSONWithoutQuotes = true

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 命令行参数覆盖端口配置
	if port != "" {
		// 自动添加冒号前缀
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Printf("命令行指定端口: %s", port)
	}

	// 打印配置信息
	config.PrintConfig()

	// 按配置选择存储后端
	var st store.Store
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		if err := database.Init(cfg); err != nil {
			log.Fatalf("数据库初始化失败: %v", err)
		}
		st = store.NewGormStore(database.DB)
	case config.DriverLocal:
		local, err := store.NewLocalStore(cfg.Database.File)
		if err != nil {
			log.Fatalf("本地存储初始化失败: %v", err)
		}
		st = local
		log.Printf("本地模式，数据文件: %s", cfg.Database.File)
	default:
		log.Fatalf("不支持的存储驱动: %s", cfg.Database.Driver)
	}
	defer st.Close()

	// 初始化 JWT
	middleware.InitJWT(cfg)

	// 设置路由
	r := router.SetupRouter(cfg, st)

	// 启动服务器
	log.Printf("==========================================")
	log.Printf("  📅 固定支出管家已启动")
	log.Printf("==========================================")
	log.Printf("  Swagger:  http://localhost%s/swagger/index.html", cfg.Server.Port)
	log.Printf("  API接口:  http://localhost%s/api/v1/", cfg.Server.Port)
	log.Printf("==========================================")

	if err := r.Run(cfg.Server.Port); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}
