package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorRef aliases the runtime PID so domain messages can carry a reply
// target without coupling every consumer to the actor runtime types.
type ActorRef actor.PID

// ActorRequest is implemented by every request message. A nil ReplyTo means
// the response goes back to the implicit sender.
type ActorRequest interface {
	ReplyTo() *ActorRef
}

// ActorResponse is implemented by every response message and exposes the
// error, if any, of the operation that produced it.
type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// ActorRequestMixIn is embedded by request messages. Setting ReplyToRef
// redirects the response somewhere other than the sender.
type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

// ActorResponseMixIn is embedded by response messages.
type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}
