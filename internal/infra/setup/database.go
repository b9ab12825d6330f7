package setup

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBOptions 描述数据库连接参数。
type DBOptions struct {
	Driver   string // "sqlite" 或 "mysql"
	Path     string // sqlite 文件路径，":memory:" 用于测试
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	LogLevel logger.LogLevel
}

// InitDB 根据驱动打开数据库连接并配置连接池。
func InitDB(opts DBOptions) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	logLevel := opts.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if opts.Driver == "mysql" {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// sqlite 只允许一个写连接，内存库每个连接都是独立的数据库
		sqlDB.SetMaxOpenConns(1)
	}
	logrus.WithField("driver", opts.Driver).Info("Database connected")
	return db, nil
}

func dialectorFor(opts DBOptions) (gorm.Dialector, error) {
	switch opts.Driver {
	case "", "sqlite":
		path := opts.Path
		if path == "" {
			path = "blog.db"
		}
		return sqlite.Open(path + sqliteParams(path)), nil
	case "mysql":
		dsn, err := mysqlDSN(opts)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", opts.Driver)
	}
}

func sqliteParams(path string) string {
	if path == ":memory:" {
		return "?_foreign_keys=on"
	}
	return "?_foreign_keys=on&_busy_timeout=5000"
}

// mysqlDSN 构建 MySQL 连接字符串 (DSN)
func mysqlDSN(opts DBOptions) (string, error) {
	if opts.User == "" {
		return "", fmt.Errorf("DB_USER environment variable not set")
	}
	if opts.Password == "" {
		return "", fmt.Errorf("DB_PASSWORD environment variable not set")
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port == "" {
		port = "3306"
	}
	name := opts.Name
	if name == "" {
		name = "blog_db"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		opts.User, opts.Password, host, port, name), nil
}
