package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/infrastructure/logger"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "tangled.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "tangled.log"
	defaultErrLogFilename = "tangled_err.log"
	defaultDbType         = DatabaseTypeLevelDB
	defaultMetricsListen  = "127.0.0.1:9311"
)

// The supported database backends
const (
	DatabaseTypeLevelDB = "leveldb"
	DatabaseTypeBadger  = "badger"
)

var (
	// DefaultAppDir is the default home directory for tangled.
	DefaultAppDir = defaultAppDir()

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
	knownDbTypes      = []string{DatabaseTypeLevelDB, DatabaseTypeBadger}
)

// Flags defines the configuration options for tangled.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir       string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir        string `long:"logdir" description:"Directory to log output"`
	DbType        string `long:"dbtype" description:"Database backend {leveldb, badger}"`
	LogLevel      string `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	MetricsListen string `long:"metricslisten" description:"Interface/port to serve prometheus metrics on, empty to disable"`
	NetworkFlags
}

// Config defines the configuration options for tangled.
type Config struct {
	*Flags
}

// NetParams returns the parameters of the selected network
func (cfg *Config) NetParams() *dagconfig.Params {
	return cfg.ActiveNetParams
}

// LogFile returns the path of the main log file
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the error log file
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

func defaultAppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tangled"
	}
	return filepath.Join(homeDir, ".tangled")
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:    defaultConfigFile,
		DataDir:       defaultDataDir,
		LogDir:        defaultLogDir,
		DbType:        defaultDbType,
		LogLevel:      defaultLogLevel,
		MetricsListen: defaultMetricsListen,
	}
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
func LoadConfig() (*Config, error) {
	cfg, _, err := loadConfig(os.Args[1:])
	return cfg, err
}

// loadConfig parses args on top of the config file and the defaults.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// Command line options always take precedence.
func loadConfig(args []string) (*Config, []string, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file was specified. Any errors aside from the help message error can
	// be ignored here since they will be caught by the final parse below.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)

	// Load additional config from file. A missing file is not an error.
	parser := flags.NewParser(cfgFlags, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, nil, errors.Wrapf(err, "error parsing config file %s", preCfg.ConfigFile)
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	funcName := "loadConfig"

	if cfg.LogLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}
	err = logger.ParseAndSetLogLevels(cfg.LogLevel)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: %s", funcName, usageMessage)
	}

	if !validDbType(cfg.DbType) {
		return nil, nil, errors.Errorf("%s: the specified database type [%s] is invalid -- "+
			"supported types %v", funcName, cfg.DbType, knownDbTypes)
	}

	err = cfg.ResolveNetwork()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", funcName)
	}

	// Namespace the data and log directories per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), cfg.NetParams().Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)

	return cfg, remainingArgs, nil
}
