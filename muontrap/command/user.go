package command

import (
	"fmt"
	"os/user"
	"strconv"
)

// resolveUid
/*
-u 参数既可以是数字uid也可以是用户名，用户名走系统用户库解析
解析结果为0一律拒绝，这个helper不支持提权，0同时也是"未设置"的内部表示
*/
func resolveUid(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		u, lookupErr := user.Lookup(value)
		if lookupErr != nil {
			return 0, fmt.Errorf("unknown user '%s'", value)
		}
		id, err = strconv.Atoi(u.Uid)
		if err != nil {
			return 0, fmt.Errorf("non-numeric uid '%s' for user '%s'", u.Uid, value)
		}
	}
	if id < 0 {
		return 0, fmt.Errorf("invalid uid '%s'", value)
	}
	if id == 0 {
		return 0, fmt.Errorf("setting the user to root or uid 0 is not allowed")
	}
	return id, nil
}

func resolveGid(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		g, lookupErr := user.LookupGroup(value)
		if lookupErr != nil {
			return 0, fmt.Errorf("unknown group '%s'", value)
		}
		id, err = strconv.Atoi(g.Gid)
		if err != nil {
			return 0, fmt.Errorf("non-numeric gid '%s' for group '%s'", g.Gid, value)
		}
	}
	if id < 0 {
		return 0, fmt.Errorf("invalid gid '%s'", value)
	}
	if id == 0 {
		return 0, fmt.Errorf("setting the group to root or gid 0 is not allowed")
	}
	return id, nil
}
