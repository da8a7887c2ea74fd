package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Connexions/plpydbapi/internal/config"
	"github.com/Connexions/plpydbapi/internal/db"
	"github.com/Connexions/plpydbapi/internal/script"
	"github.com/Connexions/plpydbapi/internal/utils"
	"github.com/Connexions/plpydbapi/pkg/dbapi"
	"github.com/Connexions/plpydbapi/pkg/models"
)

var (
	configFile string
	dbName     string
	sqlFile    string
	verbose    bool
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "plpydbapi",
	Short: "PostgreSQL SQL脚本执行工具",
	Long: `一个通过 DB-API 兼容层执行 PostgreSQL SQL 脚本的命令行工具。
语句在子事务作用域内逐条执行, 全部成功时提交, 失败时整体放弃。
可以通过配置文件管理多个数据库连接。`,
	RunE: runExecute,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "配置文件路径")
	rootCmd.PersistentFlags().StringVarP(&dbName, "database", "d", "", "数据库名称")
	rootCmd.Flags().StringVarP(&sqlFile, "file", "f", "", "SQL文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "显示详细输出")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "不显示进度条")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(testConnCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
}

// setupLogger 初始化日志记录器, 相对路径基于配置文件目录
func setupLogger(cfg *config.Config) (*utils.Logger, error) {
	logFile := cfg.LogFile
	if !filepath.IsAbs(logFile) {
		logFile = filepath.Join(filepath.Dir(configFile), logFile)
	}
	return utils.NewLogger(logFile, cfg.LogLevel, verbose)
}

func runExecute(cmd *cobra.Command, args []string) error {
	if sqlFile == "" {
		return fmt.Errorf("请指定SQL文件路径 (-f)")
	}
	if dbName == "" {
		return fmt.Errorf("请指定数据库名称 (-d)")
	}
	if !utils.FileExists(sqlFile) {
		return fmt.Errorf("SQL文件不存在: %s", sqlFile)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	dbConfig, ok := cfg.Databases[dbName]
	if !ok {
		return fmt.Errorf("未找到数据库配置: %s", dbName)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Close()

	logger.Info("启动脚本执行",
		"version", Version,
		"config", configFile,
		"sql_file", sqlFile,
		"database", dbName)

	engine, err := db.Open(&dbConfig, logger)
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}
	defer engine.Close()

	tasks, err := script.ParseFile(sqlFile)
	if err != nil {
		return fmt.Errorf("解析SQL文件失败: %w", err)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("SQL文件中没有可执行的语句: %s", sqlFile)
	}

	result := runTasks(engine, cfg, logger, tasks)
	result.Print()

	if result.Failed > 0 {
		return fmt.Errorf("执行失败")
	}
	return nil
}

// runTasks 在一个连接上逐条执行语句。失败的语句放弃当前作用域,
// 后续语句在新作用域中继续
func runTasks(engine *db.Engine, cfg *config.Config, logger *utils.Logger, tasks []models.SQLTask) *models.Result {
	conn := dbapi.Connect(engine, dbapi.WithLogger(logger.Sugar()))
	defer conn.Close()

	cur := conn.Cursor()
	cur.Arraysize = cfg.BatchSize

	var progress *utils.Progress
	if !noProgress {
		progress = utils.NewProgress(len(tasks), "执行SQL脚本")
	}

	result := models.NewResult()
	for _, task := range tasks {
		// 脚本中的 % 是字面量, 不作为占位符
		operation := strings.ReplaceAll(task.SQL, "%", "%%")
		if err := cur.Execute(operation, nil); err != nil {
			result.AddError(task, err)
			logger.Error("语句执行失败", "file", task.Filename, "line", task.LineNum, "error", err)
			conn.Rollback()
		} else {
			if task.Type == models.SQLTypeQuery && !noProgress {
				printQueryResult(cur)
			}
			result.AddSuccess(int64(cur.Rowcount()))
		}
		if progress != nil {
			progress.Increment()
		}
	}
	if progress != nil {
		progress.Finish()
	}

	if err := conn.Commit(); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("提交失败: %w", err))
		result.Failed++
	}

	result.Finish()
	return result
}

// printQueryResult 以制表符分隔打印查询结果
func printQueryResult(cur *dbapi.Cursor) {
	desc := cur.Description()
	if len(desc) > 0 {
		names := make([]string, len(desc))
		for i, col := range desc {
			names[i] = col.Name
		}
		fmt.Println(strings.Join(names, "\t"))
		fmt.Println(strings.Repeat("-", 80))
	}

	rows, err := cur.Fetchall()
	if err != nil {
		fmt.Printf("读取结果失败: %v\n", err)
		return
	}

	for _, row := range rows {
		parts := make([]string, len(row))
		for i, value := range row {
			switch v := value.(type) {
			case nil:
				parts[i] = "NULL"
			case []byte:
				parts[i] = string(v)
			case time.Time:
				parts[i] = v.Format("2006-01-02 15:04:05")
			default:
				parts[i] = fmt.Sprint(v)
			}
		}
		fmt.Println(strings.Join(parts, "\t"))
	}

	fmt.Printf("\n共返回 %d 行数据\n", len(rows))
	fmt.Println(strings.Repeat("-", 80))
}
