// Package services 提供应用的领域服务层，封装授权与过滤等聚合逻辑。
// 每个公开操作获取一次短生命周期的数据库会话/事务并在返回前释放；
// 并发修改同一实体的正确性完全依赖底层存储的事务隔离（last-commit-wins）。
// 该层对 handlers 提供较为稳定的接口，避免在 HTTP 层直接操作数据访问细节。
package services
