package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Connexions/plpydbapi/internal/config"
	"github.com/Connexions/plpydbapi/internal/db"
	"github.com/Connexions/plpydbapi/internal/utils"
)

var testConnCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "测试数据库连接",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dbName == "" {
			return fmt.Errorf("请指定数据库名称 (-d)")
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		dbConfig, ok := cfg.Databases[dbName]
		if !ok {
			return fmt.Errorf("未找到数据库配置: %s", dbName)
		}

		logger := utils.NewNopLogger()
		engine, err := db.Open(&dbConfig, logger)
		if err != nil {
			return fmt.Errorf("连接数据库失败: %w", err)
		}
		defer engine.Close()

		start := time.Now()
		if err := engine.Ping(); err != nil {
			return fmt.Errorf("连接测试失败: %w", err)
		}

		fmt.Printf("成功连接到数据库 %s (%s)\n", dbName, dbConfig.Name)
		fmt.Printf("响应时间: %s\n", time.Since(start))
		return nil
	},
}
