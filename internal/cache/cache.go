// Package cache keeps known channels and their recently seen messages.
package cache

import (
	"cmp"
	"encoding/json"
	"iter"
	"slices"
	"sync"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/models"
	"github.com/rs/zerolog"
)

// DefaultHistorySize is the number of messages kept in memory per channel
const DefaultHistorySize = 50

// Archive persists messages beyond the in-memory history
type Archive interface {
	Save(msg *models.Message) error
	Recent(channelID models.Snowflake, limit int) ([]*models.Message, error)
}

// Config controls the in-memory history
type Config struct {
	HistorySize int
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	channels map[models.Snowflake]*models.Channel
	history  map[models.Snowflake][]*models.Message
	byID     map[models.Snowflake]*models.Message

	historySize int
	archive     Archive
	logger      zerolog.Logger
}

// New creates a cache. archive may be nil.
func New(config Config, archive Archive, logger zerolog.Logger) *Cache {
	size := config.HistorySize
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Cache{
		channels:    make(map[models.Snowflake]*models.Channel),
		history:     make(map[models.Snowflake][]*models.Message),
		byID:        make(map[models.Snowflake]*models.Message),
		historySize: size,
		archive:     archive,
		logger:      logger.With().Str("component", "MessageCache").Logger(),
	}
}

// PutChannel adds or replaces a channel. Partial channels are ignored.
func (c *Cache) PutChannel(channel *models.Channel) {
	if channel == nil || channel.ID.IsZero() || channel.Partial {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channel.ID] = channel
}

// Channel returns a cached channel
func (c *Cache) Channel(id models.Snowflake) (*models.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	channel, ok := c.channels[id]
	return channel, ok
}

// GetOrCreateMessage decodes raw into a message of channel. A message already
// cached under the same ID is returned as is. A complete channel not yet
// known is cached along with the message.
func (c *Cache) GetOrCreateMessage(channel *models.Channel, raw json.RawMessage) (*models.Message, error) {
	if channel == nil {
		return nil, errorwrapper.NilArgument("channel")
	}
	if len(raw) == 0 {
		return nil, errorwrapper.NewValidationError("message", nil, "response carried no message body")
	}

	var msg models.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to decode message")
	}
	if msg.ChannelID.IsZero() {
		msg.ChannelID = channel.ID
	}
	if msg.GuildID.IsZero() {
		msg.GuildID = channel.GuildID
	}

	c.mu.Lock()
	if existing, ok := c.byID[msg.ID]; ok && !msg.ID.IsZero() {
		c.mu.Unlock()
		return existing, nil
	}
	if _, ok := c.channels[channel.ID]; !ok && !channel.ID.IsZero() && !channel.Partial {
		c.channels[channel.ID] = channel
	}
	c.insertLocked(&msg)
	c.mu.Unlock()

	c.persist(&msg)
	return &msg, nil
}

// AddMessage records a message observed outside of a send, such as one
// delivered by an event stream
func (c *Cache) AddMessage(msg *models.Message) {
	if msg == nil {
		return
	}
	c.mu.Lock()
	if _, ok := c.byID[msg.ID]; ok && !msg.ID.IsZero() {
		c.mu.Unlock()
		return
	}
	c.insertLocked(msg)
	c.mu.Unlock()

	c.persist(msg)
}

// insertLocked keeps each channel's history ordered by message ID, which
// follows creation time.
func (c *Cache) insertLocked(msg *models.Message) {
	history := c.history[msg.ChannelID]
	if n := len(history); n == 0 || history[n-1].ID <= msg.ID {
		history = append(history, msg)
	} else {
		at, _ := slices.BinarySearchFunc(history, msg.ID, func(m *models.Message, id models.Snowflake) int {
			return cmp.Compare(m.ID, id)
		})
		history = slices.Insert(history, at, msg)
	}
	if overflow := len(history) - c.historySize; overflow > 0 {
		for _, dropped := range history[:overflow] {
			delete(c.byID, dropped.ID)
		}
		history = append([]*models.Message(nil), history[overflow:]...)
	}
	c.history[msg.ChannelID] = history
	if !msg.ID.IsZero() {
		c.byID[msg.ID] = msg
	}
}

func (c *Cache) persist(msg *models.Message) {
	if c.archive == nil {
		return
	}
	if err := c.archive.Save(msg); err != nil {
		c.logger.Warn().Err(err).Str("message_id", msg.ID.String()).Msg("Failed to archive message")
	}
}

// Messages yields the messages of a channel newest first: the in-memory
// history, then older archived messages. The archive is only queried if
// iteration continues past the in-memory history.
func (c *Cache) Messages(channelID models.Snowflake) iter.Seq[*models.Message] {
	return func(yield func(*models.Message) bool) {
		c.mu.RLock()
		history := append([]*models.Message(nil), c.history[channelID]...)
		c.mu.RUnlock()

		seen := make(map[models.Snowflake]bool, len(history))
		for i := len(history) - 1; i >= 0; i-- {
			seen[history[i].ID] = true
			if !yield(history[i]) {
				return
			}
		}

		if c.archive == nil {
			return
		}
		archived, err := c.archive.Recent(channelID, 0)
		if err != nil {
			c.logger.Warn().Err(err).Str("channel_id", channelID.String()).Msg("Failed to read archived messages")
			return
		}
		for _, msg := range archived {
			if seen[msg.ID] {
				continue
			}
			if !yield(msg) {
				return
			}
		}
	}
}
