package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/massn/envordot"
	"github.com/oklog/run"

	"github.com/qknit-team/qknit-engine/common"
	"github.com/qknit-team/qknit-engine/cutting"
	"github.com/qknit-team/qknit-engine/engine"
	"github.com/qknit-team/qknit-engine/sim"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	rotate "github.com/lestrrat-go/file-rotatelogs"
)

var versionByBuildFlag string
var parser *flags.Parser
var app *App

func init() {
	if err := envordot.Load(false, ".env"); err != nil {
		fmt.Printf("Not found \".env\" file. Use only environment variables. Reason:%s\n", err.Error())
	} else {
		fmt.Println("Found \".env\" file. Environment variables are preferred, " +
			"but non-conflicting variables are those in the \".env\" file.")
	}
	app = &App{}
	setParser(app)
}

type App struct {
	DIContainerParameters *DIContainerParameters
	Conf                  *engine.Conf
}

type DIContainerParameters struct {
	Sampler string `long:"sampler" description:"sampler-type" default:"exact" choice:"exact" choice:"shots" choice:"plain" env:"QKNIT_SAMPLER_TYPE"`
}

func setParser(app *App) {
	parser = flags.NewParser(app, flags.Default)
	parser.ShortDescription = "qknit"
	parser.LongDescription = "circuit-cutting evaluation engine for quasi-probability decomposed circuits."
	parser.AddCommand("eval", "evaluate a scenario", "evaluate the cut-circuit scenario in the scenario file", newEvalCmd())
}

func parse() {
	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			}
		}
		if code == 1 {
			fmt.Printf("failed to parse flags, because %s\n", err)
		}
		os.Exit(code)
	}
}

func (a *App) provideDIContainer() (c *dig.Container, err error) {
	c = dig.New()
	err = c.Provide(func() (cutting.Sampler, error) {
		switch a.DIContainerParameters.Sampler {
		case "exact":
			return sim.NewExactSampler(), nil
		case "shots":
			s := sim.NewShotSampler(a.Conf.Shots)
			if a.Conf.Seed != 0 {
				s = s.WithSeed(a.Conf.Seed)
			}
			return s, nil
		case "plain":
			return sim.NewPlainSampler(), nil
		default:
			return sim.NewExactSampler(), fmt.Errorf("%s is an unknown sampler", a.DIContainerParameters.Sampler)
		}
	})
	if err != nil {
		return &dig.Container{}, err
	}
	return
}

func zapLogger(conf *engine.Conf) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if conf.DevMode {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		c := zap.NewProductionEncoderConfig()
		c.EncodeTime = zapcore.ISO8601TimeEncoder
		c.TimeKey = "timestamp"
		encoder = zapcore.NewJSONEncoder(c)
	}
	var level zap.AtomicLevel
	switch conf.LogLevel {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cores := []zapcore.Core{}
	if conf.EnableFileLog {
		rotater, err := makeRotator(conf.LogDir, conf.LogRotationMaxDays)
		if err != nil {
			return &zap.Logger{}, err
		}
		syncer := zapcore.AddSync(rotater)
		rotateCore := zapcore.NewCore(
			encoder,
			syncer,
			level)
		cores = append(cores, rotateCore)
	}
	if !conf.DisableStdoutLog {
		debugCore := zapcore.NewCore(
			encoder,
			zapcore.Lock(os.Stdout),
			level)
		cores = append(cores, debugCore)
	}
	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller()), nil
}

func makeRotator(dirPath string, rotationMaxDays int) (*rotate.RotateLogs, error) {
	if err := common.IsDirWritable(dirPath); err != nil {
		return &rotate.RotateLogs{}, err
	}
	rotator, err := rotate.New(
		filepath.Join(dirPath, "qknit-%Y-%m-%d.log"),
		rotate.WithMaxAge(time.Duration(rotationMaxDays)*24*time.Hour),
		rotate.WithRotationTime(time.Hour))
	if err != nil {
		return &rotate.RotateLogs{}, err
	}
	return rotator, nil
}

func main() {
	parse()
}

type evalCmd struct{}

func newEvalCmd() *evalCmd {
	return &evalCmd{}
}

func (c *evalCmd) Execute(args []string) error {
	logger := setZap(app.Conf)
	defer logger.Sync()

	scenario, err := engine.LoadScenario(app.Conf.ScenarioPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to load scenario/reason:%s", err))
		return err
	}

	container, err := app.provideDIContainer()
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up DI-Container. Reason:%s", err.Error()))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt))
	g.Add(func() error {
		defer cancel()
		return container.Invoke(func(sampler cutting.Sampler) error {
			report, err := engine.Evaluate(ctx, scenario, sampler)
			if err != nil {
				zap.L().Error(fmt.Sprintf("failed to evaluate the scenario. Reason:%s", err.Error()))
				return err
			}
			return writeReport(report, app.Conf.OutputPath)
		})
	}, func(error) {
		cancel()
	})

	if err := g.Run(); err != nil {
		if _, ok := err.(run.SignalError); ok {
			zap.L().Info(fmt.Sprintf("stopped by signal/reason:%s", err.Error()))
			return nil
		}
		fmt.Fprintf(os.Stderr, "execution error:%v\n", err)
		os.Exit(1)
	}
	return nil
}

func writeReport(report *engine.Report, outputPath string) error {
	out, err := report.Pretty()
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to marshal the report. Reason:%s", err.Error()))
		return err
	}
	if outputPath == "" {
		fmt.Println(out)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(out), 0644); err != nil {
		zap.L().Error(fmt.Sprintf("failed to write the report to %s. Reason:%s", outputPath, err.Error()))
		return err
	}
	zap.L().Info(fmt.Sprintf("wrote the report to %s", outputPath))
	return nil
}

func setZap(conf *engine.Conf) *zap.Logger {
	logger, err := zapLogger(conf)
	if err != nil {
		fmt.Printf("Failed to setup logger. Reason:%s\n", err)
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	zap.L().Info("Starting logger")
	zap.L().Info(fmt.Sprintf("DevMode is %t", conf.DevMode))
	if versionByBuildFlag != "" {
		zap.L().Info(fmt.Sprintf("Version is %s", versionByBuildFlag))
	}
	return logger
}
