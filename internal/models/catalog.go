package models

// CatalogFile is the on-disk layout of an optional YAML boss catalog.
type CatalogFile struct {
	Comment string       `yaml:"_comment"`
	Bosses  []BossRecord `yaml:"bosses"`
}

// SeedCatalog returns the fixed twelve-boss catalog written on first run.
func SeedCatalog() []BossRecord {
	return []BossRecord{
		{ID: 1, Category: "海底", Name: "四一", Interval: 6, Delay: 0},
		{ID: 2, Category: "海底", Name: "五一", Interval: 6, Delay: 0},
		{ID: 3, Category: "海底", Name: "龙王", Interval: 6, Delay: 0},
		{ID: 4, Category: "海底", Name: "海魔", Interval: 8, Delay: 2},
		{ID: 5, Category: "海底", Name: "船长", Interval: 8, Delay: 0},
		{ID: 6, Category: "业火", Name: "神驹", Interval: 6, Delay: 0},
		{ID: 7, Category: "业火", Name: "魔君", Interval: 6, Delay: 0},
		{ID: 8, Category: "业火", Name: "囚笼", Interval: 8, Delay: 0},
		{ID: 9, Category: "其他", Name: "祖玛", Interval: 3, Delay: 2},
		{ID: 10, Category: "其他", Name: "老牛", Interval: 4, Delay: 0},
		{ID: 11, Category: "其他", Name: "魔王", Interval: 6, Delay: 120},
		{ID: 12, Category: "其他", Name: "毒龙", Interval: 24, Delay: 0},
	}
}
