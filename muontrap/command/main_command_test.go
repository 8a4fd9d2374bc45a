package command

import (
	"flag"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlmiS/muontrap/muontrap/cgroup"
)

// 用真实的flag机制解析，验证-c和-s交错出现时的绑定关系
func parseFlags(t *testing.T, args ...string) (*configBuilder, error) {
	b := &configBuilder{}
	fs := flag.NewFlagSet("muontrap", flag.ContinueOnError)
	fs.SetOutput(ioutil.Discard)
	fs.Var(&controllerValue{b}, "c", "")
	fs.Var(&setValue{b}, "s", "")
	fs.Var(&pathValue{b}, "p", "")
	return b, fs.Parse(args)
}

func TestControllerSettingBinding(t *testing.T) {
	b, err := parseFlags(t,
		"-c", "memory",
		"-s", "memory.limit_in_bytes=1048576",
		"-c", "cpu",
		"-s", "cpu.shares=512",
		"-s", "cpu.cfs_quota_us=10000",
	)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(b.controllers))

	assert.Equal(t, "memory", b.controllers[0].Name)
	assert.Equal(t, []cgroup.Setting{{Key: "memory.limit_in_bytes", Value: "1048576"}}, b.controllers[0].Settings)

	assert.Equal(t, "cpu", b.controllers[1].Name)
	assert.Equal(t, []cgroup.Setting{
		{Key: "cpu.shares", Value: "512"},
		{Key: "cpu.cfs_quota_us", Value: "10000"},
	}, b.controllers[1].Settings)
}

func TestSetBeforeController(t *testing.T) {
	_, err := parseFlags(t, "-s", "memory.limit_in_bytes=1048576")
	assert.Error(t, err)
}

func TestSetWithoutEquals(t *testing.T) {
	_, err := parseFlags(t, "-c", "cpu", "-s", "cpu.shares")
	assert.Error(t, err)
}

func TestSetValueEdgeCases(t *testing.T) {
	// value为空和value里再含=都是合法的，只按第一个=切分
	b, err := parseFlags(t, "-c", "memory", "-s", "a=", "-s", "b=x=y")
	assert.Nil(t, err)
	assert.Equal(t, []cgroup.Setting{
		{Key: "a", Value: ""},
		{Key: "b", Value: "x=y"},
	}, b.controllers[0].Settings)
}

func TestDuplicatePath(t *testing.T) {
	_, err := parseFlags(t, "-p", "scope/a", "-p", "scope/b")
	assert.Error(t, err)
}

func TestBuildConfig(t *testing.T) {
	b, err := parseFlags(t, "-c", "memory", "-p", "scope/job1")
	assert.Nil(t, err)

	cfg, err := buildConfig(b, 1000, "", "", []string{"sleep", "30"})
	assert.Nil(t, err)
	assert.Equal(t, "scope/job1", cfg.Path)
	assert.Equal(t, 1000, cfg.GraceMicros)
	assert.Equal(t, "sleep", cfg.Program)
	assert.Equal(t, []string{"sleep", "30"}, cfg.Args)
	assert.Equal(t, 0, cfg.Uid)
	assert.Equal(t, 0, cfg.Gid)
}

func TestBuildConfigMissingProgram(t *testing.T) {
	b := &configBuilder{}
	_, err := buildConfig(b, 1000, "", "", nil)
	assert.Error(t, err)
}

func TestBuildConfigControllerPathCoupling(t *testing.T) {
	// 有-c必须有-p，有-p也必须有-c
	b, err := parseFlags(t, "-c", "memory")
	assert.Nil(t, err)
	_, err = buildConfig(b, 1000, "", "", []string{"true"})
	assert.Error(t, err)

	b, err = parseFlags(t, "-p", "scope/job1")
	assert.Nil(t, err)
	_, err = buildConfig(b, 1000, "", "", []string{"true"})
	assert.Error(t, err)
}

func TestBuildConfigGraceBounds(t *testing.T) {
	b := &configBuilder{}
	_, err := buildConfig(b, -1, "", "", []string{"true"})
	assert.Error(t, err)

	_, err = buildConfig(b, 1000001, "", "", []string{"true"})
	assert.Error(t, err)

	cfg, err := buildConfig(b, 0, "", "", []string{"true"})
	assert.Nil(t, err)
	assert.Equal(t, 0, cfg.GraceMicros)

	cfg, err = buildConfig(b, 1000000, "", "", []string{"true"})
	assert.Nil(t, err)
	assert.Equal(t, 1000000, cfg.GraceMicros)
}

func TestResolveUid(t *testing.T) {
	uid, err := resolveUid("1000")
	assert.Nil(t, err)
	assert.Equal(t, 1000, uid)

	// 0是保留值，数字0和解析出0的用户名都要拒绝
	_, err = resolveUid("0")
	assert.Error(t, err)

	_, err = resolveUid("no-such-user-muontrap")
	assert.Error(t, err)

	_, err = resolveUid("-5")
	assert.Error(t, err)

	uid, err = resolveUid("")
	assert.Nil(t, err)
	assert.Equal(t, 0, uid)
}

func TestResolveGid(t *testing.T) {
	gid, err := resolveGid("1000")
	assert.Nil(t, err)
	assert.Equal(t, 1000, gid)

	_, err = resolveGid("0")
	assert.Error(t, err)

	_, err = resolveGid("no-such-group-muontrap")
	assert.Error(t, err)

	gid, err = resolveGid("")
	assert.Nil(t, err)
	assert.Equal(t, 0, gid)
}
