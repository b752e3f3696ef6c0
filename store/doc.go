// Package store 提供 core.Store 的后端实现：内存、Redis 与 Badger。
//
// 接口定义在 core 包，这里只有实现：
//
//	var s core.Store = store.NewMemoryStore()
//	s, err := store.Open(store.Config{Backend: "badger", Path: "./data/catalog"})
package store
