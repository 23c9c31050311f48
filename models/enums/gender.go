package enums

// Gender 个人资料中的性别，0 表示未填写
type Gender uint

const (
	Unknown Gender = iota
	Male
	Female
)
