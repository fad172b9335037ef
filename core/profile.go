package core

// 价格区间划分，与行为分析和内容打分保持一致。
const (
	PriceRange0to500    = "0-500"
	PriceRange500to1000 = "500-1000"
	PriceRange1kto2k    = "1000-2000"
	PriceRange2kto5k    = "2000-5000"
	PriceRange5kPlus    = "5000+"
)

// PriceRangeOf 返回价格所属的区间标签。
func PriceRangeOf(price float64) string {
	switch {
	case price < 500:
		return PriceRange0to500
	case price < 1000:
		return PriceRange500to1000
	case price < 2000:
		return PriceRange1kto2k
	case price < 5000:
		return PriceRange2kto5k
	default:
		return PriceRange5kPlus
	}
}

// PreferenceProfile 是从浏览历史推导出的用户偏好画像。
//
// 设计要点：
//   - 每次请求即时重建，不落盘
//   - 直方图按出现次数加权，不做概率归一化
//   - TotalViews == 0 即冷启动信号，内容/协同召回都消费它
type PreferenceProfile struct {
	Categories  map[string]int `json:"categories"`
	Brands      map[string]int `json:"brands"`
	PriceRanges map[string]int `json:"price_ranges"`
	TotalViews  int            `json:"total_views"`
}

// NewPreferenceProfile 创建一个空画像（冷启动状态）。
func NewPreferenceProfile() *PreferenceProfile {
	return &PreferenceProfile{
		Categories:  make(map[string]int),
		Brands:      make(map[string]int),
		PriceRanges: make(map[string]int),
	}
}

// Empty 判断画像是否为冷启动状态。
func (p *PreferenceProfile) Empty() bool {
	return p == nil || p.TotalViews == 0
}

// TopCategories 返回按计数降序的前 n 个类别。
func (p *PreferenceProfile) TopCategories(n int) []string {
	return topKeys(p.Categories, n)
}

// TopBrands 返回按计数降序的前 n 个品牌。
func (p *PreferenceProfile) TopBrands(n int) []string {
	return topKeys(p.Brands, n)
}

// topKeys 取计数前 n 的 key。计数相同时按 key 字典序，保证结果稳定。
func topKeys(counts map[string]int, n int) []string {
	if len(counts) == 0 || n <= 0 {
		return nil
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if counts[keys[j]] > counts[keys[i]] ||
				(counts[keys[j]] == counts[keys[i]] && keys[j] < keys[i]) {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
