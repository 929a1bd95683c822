// Package search 列表页的搜索 + 分类过滤。
// 所有谓词做 AND，保持原顺序（稳定过滤，不重排）。
package search

import "strings"

// All 分类过滤的哨兵值：不做约束
const All = "All"

// Predicate 单个过滤条件
type Predicate[T any] func(T) bool

// Filter 返回满足全部谓词的子序列（新切片，原切片不变）
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if matchAll(it, preds) {
			out = append(out, it)
		}
	}
	return out
}

func matchAll[T any](it T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if p != nil && !p(it) {
			return false
		}
	}
	return true
}

// Text 任一字段（不区分大小写）包含 query 即命中；空 query 全部命中
func Text[T any](query string, fields ...func(T) string) Predicate[T] {
	q := strings.ToLower(query)
	if q == "" {
		return nil
	}
	return func(it T) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(it)), q) {
				return true
			}
		}
		return false
	}
}

// Equals 分类字段等值；selected 为 "All" 或空时不约束
func Equals[T any](selected string, field func(T) string) Predicate[T] {
	if selected == "" || selected == All {
		return nil
	}
	return func(it T) bool {
		return field(it) == selected
	}
}
