package utils

import (
	"fmt"
	"strings"
)

// ObjectKeyPrefix 返回用户在某个用途下上传对象的 key 前缀，例如 "tenants/t1/users/u1/avatar/"。
func ObjectKeyPrefix(tenantID, userID, purpose string) string {
	return fmt.Sprintf("tenants/%s/users/%s/%s/", tenantID, userID, purpose)
}

// OwnsObjectKey 判断 key 是否位于该用户指定用途的前缀之下。
func OwnsObjectKey(key, tenantID, userID, purpose string) bool {
	prefix := ObjectKeyPrefix(tenantID, userID, purpose)
	return strings.HasPrefix(key, prefix) && len(key) > len(prefix) && !strings.Contains(key, "..")
}
