package keyword

import "strings"

// Match 返回 text 中实际出现的词典条目。
// 结果不重复、按词典声明顺序排列（不是在文本中出现的先后顺序），
// 匹配为区分大小写的子串判断："ROAS" 与 "roas" 是两个独立条目，可同时命中。
func Match(text string) []string {
	if text == "" {
		return nil
	}
	var matched []string
	seen := make(map[string]struct{}, 4)
	for _, kw := range Dictionary {
		if _, ok := seen[kw]; ok {
			continue
		}
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
			seen[kw] = struct{}{}
		}
	}
	return matched
}

// Matches 判断 text 是否命中任一词典条目，供只需布尔结果的调用方使用
func Matches(text string) bool {
	if text == "" {
		return false
	}
	for _, kw := range Dictionary {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
