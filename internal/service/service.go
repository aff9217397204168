// Package service 组装各业务服务
package service

import (
	"github.com/redis/go-redis/v9"

	"github.com/akproject/ak-chat/internal/config"
	"github.com/akproject/ak-chat/internal/mailer"
	"github.com/akproject/ak-chat/internal/repository"
	"github.com/akproject/ak-chat/internal/service/auth"
	"github.com/akproject/ak-chat/internal/service/chat"
	modelcatalog "github.com/akproject/ak-chat/internal/service/model"
	"github.com/akproject/ak-chat/internal/service/plan"
	"github.com/akproject/ak-chat/internal/upstream"
)

// Services 服务集合
type Services struct {
	Chat    *chat.Service
	Auth    *auth.Service
	Model   *modelcatalog.Service
	Plans   *plan.Registry
	PlanGen *plan.Generator

	Config *config.Config
}

// NewServices 创建所有服务
func NewServices(repos *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	upstreamClient := upstream.NewClient(&cfg.Upstream)
	mailClient := mailer.NewClient(&cfg.Mail)
	codeStore := auth.NewRedisCodeStore(redisClient)

	return &Services{
		Chat:    chat.NewService(repos.Chat, upstreamClient),
		Auth:    auth.NewService(repos.Auth, codeStore, mailClient, &cfg.Auth),
		Model:   modelcatalog.NewService(),
		Plans:   plan.NewRegistry(),
		PlanGen: plan.NewGenerator(upstreamClient),
		Config:  cfg,
	}, nil
}
