package context

import (
	"context"

	"loadsheet/infrastructure/sheet"
)

type actorKey struct{}

func NewContextWithActor(ctx context.Context, actor sheet.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func GetActorFromContext(ctx context.Context) (sheet.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(sheet.Actor)
	return a, ok
}
