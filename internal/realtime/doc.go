// Package realtime реализует движок оптимистичной синхронизации состояния дашборда.
//
// Manager держит подтверждённый сервером снимок (baseline), поверх которого
// в порядке применения накладываются данные незавершённых локальных операций.
// Удалённые обновления проходят через детектор конфликтов и сливаются в baseline.
// Все изменения публикуются подписчикам через типизированную шину событий.
//
// Один Manager обслуживает один документ. Экземпляры не разделяют состояние.
package realtime
