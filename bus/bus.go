// bus.go
package bus

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
)

// -----------------------------------------------------------------------------
// Tokens + Topics
// -----------------------------------------------------------------------------

// Token is a single element in a topic path. Any comparable value works as a
// token; in practice strings and small ints. The strings "+" and "#" are
// wildcards in subscription topics: "+" matches exactly one level, "#"
// matches zero or more trailing levels.
type Token = any

// T validates a token. Non-comparable values (slices, maps, funcs) cannot be
// trie keys and panic here instead of inside the bus.
func T(v any) Token {
	if rt := reflect.TypeOf(v); rt != nil && !rt.Comparable() {
		panic("bus: token must be comparable")
	}
	return v
}

// Topic is a sequence of tokens.
type Topic []Token

const (
	wildOne = "+"
	wildAll = "#"
)

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection // owning connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[Token]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok Token) *node {
	if n.children == nil {
		return nil
	}
	return n.children[tok]
}

func (n *node) ensure(tok Token) *node {
	if n.children == nil {
		n.children = make(map[Token]*node)
	}
	c, ok := n.children[tok]
	if !ok {
		c = &node{}
		n.children[tok] = c
	}
	return c
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu   sync.Mutex
	root *node
	qLen int
}

// NewBus creates a new bus with the given subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

// NewMessage builds a message. Convenience mirrored on Connection.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// addSubscription inserts a subscription into the trie and delivers any
// retained messages matching its (possibly wildcarded) topic.
func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range topic {
		n = n.ensure(tok)
	}
	n.subs = append(n.subs, sub)

	var retained []*Message
	collectRetained(b.root, topic, &retained)
	for _, m := range retained {
		select {
		case sub.ch <- m:
		default:
		}
	}
}

// collectRetained gathers retained messages under n matching pattern.
func collectRetained(n *node, pattern Topic, out *[]*Message) {
	if n == nil {
		return
	}
	if len(pattern) == 0 {
		if n.retained != nil {
			*out = append(*out, n.retained)
		}
		return
	}
	head, rest := pattern[0], pattern[1:]
	switch head {
	case Token(wildAll):
		allRetained(n, out)
	case Token(wildOne):
		for _, c := range n.children {
			collectRetained(c, rest, out)
		}
	default:
		collectRetained(n.child(head), rest, out)
	}
}

func allRetained(n *node, out *[]*Message) {
	if n.retained != nil {
		*out = append(*out, n.retained)
	}
	for _, c := range n.children {
		allRetained(c, out)
	}
}

// Publish delivers a message to all subscribers whose topics match, and
// stores (or clears, on nil payload) the retained message at the exact topic.
//
// Delivery happens while holding b.mu: sends are serialized against the
// close in unsubscribe, so a publish can never race a departing
// subscriber onto a closed channel.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var targets []*Subscription
	match(b.root, msg.Topic, &targets)

	if msg.Retained {
		n := b.root
		for _, tok := range msg.Topic {
			n = n.ensure(tok)
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}

	for _, sub := range targets {
		select {
		case sub.ch <- msg:
		default:
			// Queue full: drop the oldest entry. Only lock holders send,
			// so after the drain this send cannot fail and the newest
			// message is always delivered (last-write-wins for state
			// consumers).
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- msg
		}
	}
}

// match walks the trie collecting subscriptions whose pattern covers toks.
func match(n *node, toks Topic, out *[]*Subscription) {
	if n == nil {
		return
	}
	if len(toks) == 0 {
		*out = append(*out, n.subs...)
		if h := n.child(Token(wildAll)); h != nil {
			*out = append(*out, h.subs...) // "#" matches zero levels
		}
		return
	}
	head, rest := toks[0], toks[1:]
	match(n.child(head), rest, out)
	match(n.child(Token(wildOne)), rest, out)
	if h := n.child(Token(wildAll)); h != nil {
		*out = append(*out, h.subs...)
	}
}

// unsubscribe removes a subscription from the trie and closes its channel.
// The close happens under b.mu, after the subscription is unreachable, so
// no in-flight publish can still send to it. Idempotent: a subscription
// that is no longer present is left alone.
func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, t := range topic {
		c := n.child(t)
		if c == nil {
			return
		}
		stack = append(stack, n)
		n = c
	}

	removed := false
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		close(sub.ch)
	}

	// Prune empty nodes.
	for i := len(topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus    *Bus
	subs   []*Subscription
	mu     sync.Mutex
	id     string
	nextRq uint32 // reply-topic sequence
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{
		bus: b,
		id:  id,
	}
}

// NewMessage builds a message (same as Bus.NewMessage).
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
	}
}

// -----------------------------------------------------------------------------
// Request–Reply
// -----------------------------------------------------------------------------

// Reply answers a request on its ReplyTo topic. No-op if the request did not
// ask for a reply.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if len(req.ReplyTo) == 0 {
		return
	}
	c.bus.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
}

// Request stamps msg with a unique ReplyTo topic, subscribes to it, and
// publishes the request. The caller owns the returned subscription.
func (c *Connection) Request(msg *Message) *Subscription {
	seq := atomic.AddUint32(&c.nextRq, 1)
	msg.ReplyTo = Topic{"$reply", c.id, int(seq)}
	sub := c.Subscribe(msg.ReplyTo)
	c.bus.Publish(msg)
	return sub
}

// ErrRequestTimeout is returned by RequestWait when ctx expires first.
var ErrRequestTimeout = errors.New("bus: request timed out")

// RequestWait publishes the request and blocks for one reply or ctx expiry.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	sub := c.Request(msg)
	defer c.Unsubscribe(sub)

	select {
	case reply := <-sub.ch:
		return reply, nil
	case <-ctx.Done():
		if err := ctx.Err(); err == context.DeadlineExceeded {
			return nil, ErrRequestTimeout
		}
		return nil, ctx.Err()
	}
}
