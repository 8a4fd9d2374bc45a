package command

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/AlmiS/muontrap/muontrap/container"
	"github.com/AlmiS/muontrap/muontrap/run"
)

const appUsage = `run a program inside cgroups, tied to the lifetime of the launching host.
               The helper kills the program and everything it spawned, and removes the
               cgroups it created, whenever it exits for any reason.`

const maxGraceMicros = 1000000

// NewApp
/*
组装整个命令行应用：
1.顶层flag加Action就是正常的运行入口：muontrap [OPTIONS] -- <program> [args...]
2.child是内部子命令，由父进程通过/proc/self/exe拉起，外部不要调用
3.参数校验失败时把usage打到标准输出，以非零状态退出
*/
func NewApp() *cli.App {
	b := &configBuilder{}

	app := cli.NewApp()
	app.Name = "muontrap"
	app.Usage = appUsage
	app.ArgsUsage = "-- <program> [args...]"
	app.Flags = flags(b)
	app.Commands = []cli.Command{
		ChildCommand,
	}

	app.Before = func(context *cli.Context) error {
		log.SetFormatter(&log.JSONFormatter{})
		// 标准输出只留给usage文本，日志一律走标准错误
		log.SetOutput(os.Stderr)
		if os.Getenv("MUONTRAP_DEBUG") != "" {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	}

	app.Action = func(context *cli.Context) error {
		cfg, err := buildConfig(b, context.Int("delay-to-sigkill"), context.String("uid"), context.String("gid"), []string(context.Args()))
		if err != nil {
			_ = cli.ShowAppHelp(context)
			return cli.NewExitError(err.Error(), 1)
		}
		if code := run.Run(cfg); code != 0 {
			return cli.NewExitError("", code)
		}
		return nil
	}

	return app
}

var ChildCommand = cli.Command{
	Name:   "child",
	Usage:  "attach to cgroups, drop privilege and exec the target program. Do not call it outside",
	Hidden: true,
	Action: func(context *cli.Context) error {
		// 这里还在子进程自己的代码里，返回错误意味着exec没有发生，以非零退出
		return container.RunChildProcess()
	},
}

// buildConfig 解析结束后的整体校验，规则和原始命令行约定一一对应
func buildConfig(b *configBuilder, graceMicros int, uidValue, gidValue string, args []string) (*run.Config, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("specify a program to run")
	}
	if len(b.controllers) > 0 && b.path == "" {
		return nil, fmt.Errorf("specify a cgroup path (-p)")
	}
	if b.path != "" && len(b.controllers) == 0 {
		return nil, fmt.Errorf("specify a cgroup controller (-c) if you specify a path")
	}
	if graceMicros < 0 || graceMicros > maxGraceMicros {
		return nil, fmt.Errorf("delay to sending a SIGKILL must be between 0 and 1,000,000 microseconds")
	}

	uid, err := resolveUid(uidValue)
	if err != nil {
		return nil, err
	}
	gid, err := resolveGid(gidValue)
	if err != nil {
		return nil, err
	}

	return &run.Config{
		Path:        b.path,
		Controllers: b.controllers,
		GraceMicros: graceMicros,
		Uid:         uid,
		Gid:         gid,
		Program:     args[0],
		Args:        args,
	}, nil
}
