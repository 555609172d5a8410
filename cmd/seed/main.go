package main

import (
	"fmt"
	"log"

	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/models"
	"github.com/holdcart/internal/service"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoUserEmail    = "demo@holdcart.dev"
	demoUserPassword = "demo123456"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加演示用户
	demoUser := seedDemoUser(stdLog)

	// 添加商品
	products := []models.Product{
		{
			Slug:        "wireless-earphones",
			Title:       "无线蓝牙耳机",
			Description: "高品质音质，长续航，舒适佩戴",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(99.99)),
			ImageURL:    "https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=800",
			Stock:       120,
			IsActive:    true,
			SortOrder:   30,
		},
		{
			Slug:        "smart-watch",
			Title:       "智能手表",
			Description: "心率监测，运动追踪，消息提醒",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(199.00)),
			ImageURL:    "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=800",
			Stock:       60,
			IsActive:    true,
			SortOrder:   20,
		},
		{
			Slug:        "usb-c-hub",
			Title:       "USB-C 扩展坞",
			Description: "七合一接口，支持 4K 输出",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(49.50)),
			ImageURL:    "https://images.unsplash.com/photo-1625723044792-44de16ccb4e9?w=800",
			Stock:       200,
			IsActive:    true,
			SortOrder:   10,
		},
		{
			Slug:        "legacy-keyboard",
			Title:       "薄膜键盘（已下架）",
			Description: "经典布局，静音按键",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)),
			Stock:       0,
			IsActive:    false,
			SortOrder:   0,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	// 添加套装
	combos := []models.Combo{
		{
			Slug:        "workspace-bundle",
			Title:       "移动办公套装",
			Description: "耳机 + 扩展坞组合，开箱即用",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(139.00)),
			ImageURL:    "https://images.unsplash.com/photo-1593642632823-8f785ba67e45?w=800",
			Stock:       40,
			IsActive:    true,
			SortOrder:   20,
		},
		{
			Slug:        "fitness-bundle",
			Title:       "运动健康套装",
			Description: "手表 + 耳机，训练数据全记录",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(269.00)),
			ImageURL:    "https://images.unsplash.com/photo-1461896836934-ffe607ba8211?w=800",
			Stock:       25,
			IsActive:    true,
			SortOrder:   10,
		},
	}

	for _, combo := range combos {
		var existing models.Combo
		if err := models.DB.Where("slug = ?", combo.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&combo).Error; err != nil {
				stdLog.Printf("Failed to create combo %s: %v", combo.Slug, err)
			} else {
				stdLog.Printf("Created combo: %s", combo.Slug)
			}
		} else {
			stdLog.Printf("Combo already exists: %s", combo.Slug)
		}
	}

	stdLog.Printf("Seed finished")

	// 打印演示用户的访问 Token，方便直接调试购物车接口
	if demoUser != nil {
		token, expiresAt, err := service.GenerateUserJWT(cfg.UserJWT, demoUser)
		if err != nil {
			stdLog.Printf("Failed to generate demo token: %v", err)
			return
		}
		fmt.Printf("\nDemo user: %s / %s\n", demoUserEmail, demoUserPassword)
		fmt.Printf("Bearer token (expires %s):\n%s\n", expiresAt.Format("2006-01-02 15:04:05"), token)
	}
}

func seedDemoUser(stdLog *log.Logger) *models.User {
	var existing models.User
	if err := models.DB.Where("email = ?", demoUserEmail).First(&existing).Error; err == nil {
		stdLog.Printf("Demo user already exists: %s", demoUserEmail)
		return &existing
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoUserPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Printf("Failed to hash demo password: %v", err)
		return nil
	}
	user := models.User{
		Email:        demoUserEmail,
		PasswordHash: string(hash),
		DisplayName:  "Demo",
		Status:       "active",
	}
	if err := models.DB.Create(&user).Error; err != nil {
		stdLog.Printf("Failed to create demo user: %v", err)
		return nil
	}
	stdLog.Printf("Created demo user: %s", demoUserEmail)
	return &user
}
