package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/AlmiS/muontrap/muontrap/cgroup"
)

// configBuilder 在解析过程中累积 -c/-p/-s 的结果
/*
-c和-s的相对顺序是有语义的，-s落在最近一次-c声明的控制器上
urfave/cli对Generic类型的flag每出现一次就调一次Set，且按命令行顺序调，
靠这一点保住两个flag交错出现的顺序
*/
type configBuilder struct {
	controllers []*cgroup.Controller
	path        string
}

type controllerValue struct {
	b *configBuilder
}

func (v *controllerValue) Set(name string) error {
	v.b.controllers = append(v.b.controllers, cgroup.NewController(name))
	return nil
}

func (v *controllerValue) String() string {
	return ""
}

type setValue struct {
	b *configBuilder
}

// Set 解析KEY=VALUE，只按第一个=切分，value里允许再出现=，也允许为空
func (v *setValue) Set(kv string) error {
	if len(v.b.controllers) == 0 {
		return fmt.Errorf("specify a cgroup controller (-c) before setting a variable")
	}
	i := strings.Index(kv, "=")
	if i < 0 {
		return fmt.Errorf("no '=' found when setting a variable: '%s'", kv)
	}
	current := v.b.controllers[len(v.b.controllers)-1]
	current.AddSetting(kv[:i], kv[i+1:])
	return nil
}

func (v *setValue) String() string {
	return ""
}

type pathValue struct {
	b *configBuilder
}

func (v *pathValue) Set(p string) error {
	if v.b.path != "" {
		return fmt.Errorf("only one cgroup path supported")
	}
	if p == "" {
		return fmt.Errorf("cgroup path must not be empty")
	}
	v.b.path = p
	return nil
}

func (v *pathValue) String() string {
	return ""
}

func flags(b *configBuilder) []cli.Flag {
	return []cli.Flag{
		cli.GenericFlag{
			Name:  "controller, c",
			Usage: "cgroup controller to use (may be specified multiple times)",
			Value: &controllerValue{b},
		},
		cli.GenericFlag{
			Name:  "path, p",
			Usage: "cgroup path shared by all controllers",
			Value: &pathValue{b},
		},
		cli.GenericFlag{
			Name:  "set, s",
			Usage: "cgroup variable=value for the last -c (may be specified multiple times)",
			Value: &setValue{b},
		},
		cli.IntFlag{
			Name:  "delay-to-sigkill, k",
			Usage: "microseconds to wait between SIGTERM and SIGKILL",
			Value: 1000,
		},
		cli.StringFlag{
			Name:  "uid, u",
			Usage: "drop privilege to this uid or user",
		},
		cli.StringFlag{
			Name:  "gid, g",
			Usage: "drop privilege to this gid or group",
		},
	}
}
