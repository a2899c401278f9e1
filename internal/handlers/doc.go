// Package handlers 聚合领域服务并注册 HTTP 路由，负责参数绑定与领域错误到状态码的映射。
// 业务规则（授权、过滤、标签物化）不在此层实现。
package handlers
