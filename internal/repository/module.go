package repository

import "go.uber.org/fx"

// Module provides every repository
var Module = fx.Options(
	fx.Provide(NewUserRepository),
	fx.Provide(NewResourceGroupRepository),
	fx.Provide(NewWorkRecordRepository),
	fx.Provide(NewScheduleRepository),
	fx.Provide(NewTaskRepository),
	fx.Provide(NewDailyAnalyticsRepository),
	fx.Provide(NewPriorityRepository),
	fx.Provide(NewCronJobLogRepository),
)
