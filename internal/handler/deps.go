package handler

import (
	"relaychat/internal/app/chat"
	"relaychat/internal/configs"
)

type AppDeps struct {
	Relay  *chat.Relay
	Config *configs.AppConfig
}
