package schema

import "github.com/danmuck/crosspacket/internal/protocol/value"

// Built-in packet type ids.
const (
	TypeMessage       = "/chat/MessagePacket"
	TypePing          = "/example/PingPacket"
	TypePong          = "/example/PongPacket"
	TypeDataChunk     = "/example/DataChunkPacket"
	TypeUserProfile   = "/example/UserProfilePacket"
	TypeSecureMessage = "/example/SecureMessagePacket"
	TypeComprehensive = "/test/ComprehensivePacket"
)

var Message = MustNew(TypeMessage,
	Field("senderId", "sender_id", value.KindText).Opt(),
	Field("content", "content", value.KindText).Opt(),
	Field("timestamp", "timestamp", value.KindText).DateTime().Opt(),
)

var Ping = MustNew(TypePing,
	Field("timestamp", "timestamp", value.KindText).DateTime().Opt(),
	Field("message", "message", value.KindText).Opt(),
)

var Pong = MustNew(TypePong,
	Field("originalTimestamp", "original_timestamp", value.KindText).DateTime().Opt(),
	Field("responseTimestamp", "response_timestamp", value.KindText).DateTime().Opt(),
	Field("latencyMs", "latency_ms", value.KindInt64),
)

var DataChunk = MustNew(TypeDataChunk,
	Field("chunkIndex", "chunk_index", value.KindInt64),
	Field("totalChunks", "total_chunks", value.KindInt64),
	Field("data", "data", value.KindMapping).Opt(),
	Field("checksum", "checksum", value.KindText).Opt(),
)

var UserProfile = MustNew(TypeUserProfile,
	Field("userId", "user_id", value.KindInt64),
	Field("username", "username", value.KindText).Opt(),
	Field("email", "email", value.KindText).Opt(),
	Field("bio", "bio", value.KindText).Opt(),
	Field("age", "age", value.KindInt64),
	Field("balance", "balance", value.KindFloat64),
	Field("tags", "tags", value.KindSequence).Of(value.KindText).Opt(),
	Field("preferences", "preferences", value.KindMapping).KeyedByText().Opt(),
	Field("avatar", "avatar", value.KindBytes).Opt(),
	Field("createdAt", "created_at", value.KindText).DateTime().Opt(),
	Field("lastLogin", "last_login", value.KindText).DateTime().Opt(),
)

var SecureMessage = MustNew(TypeSecureMessage,
	Field("messageId", "message_id", value.KindText).Opt(),
	Field("senderId", "sender_id", value.KindInt64),
	Field("recipientId", "recipient_id", value.KindInt64),
	Field("subject", "subject", value.KindText).Opt(),
	Field("body", "body", value.KindText).Opt(),
	Field("attachments", "attachments", value.KindSequence).Opt(),
	Field("encryptedPayload", "encrypted_payload", value.KindBytes).Opt(),
	Field("priority", "priority", value.KindInt64),
	Field("isRead", "is_read", value.KindBool),
	Field("sentAt", "sent_at", value.KindText).DateTime().Opt(),
)

var Comprehensive = MustNew(TypeComprehensive,
	Field("intField", "int_field", value.KindInt64),
	Field("floatField", "float_field", value.KindFloat32),
	Field("doubleField", "double_field", value.KindFloat64),
	Field("stringField", "string_field", value.KindText).Opt(),
	Field("boolField", "bool_field", value.KindBool),
	Field("datetimeField", "datetime_field", value.KindText).DateTime().Opt(),
	Field("timeField", "time_field", value.KindText).TimeOfDay().Opt(),
	Field("listField", "list_field", value.KindSequence).Opt(),
	Field("listIntField", "list_int_field", value.KindSequence).Of(value.KindInt64).Opt(),
	Field("listStringField", "list_string_field", value.KindSequence).Of(value.KindText).Opt(),
	Field("mapField", "map_field", value.KindMapping).KeyedByText().Opt(),
	Field("embeddedMapField", "embedded_map_field", value.KindMapping).Opt(),
	Field("mapStringDynamicField", "map_string_dynamic_field", value.KindMapping).KeyedByText().Opt(),
	Field("bytesField", "bytes_field", value.KindBytes).Opt(),
)

// Builtin returns the built-in schemas in declaration order.
func Builtin() []*Schema {
	return []*Schema{Message, Ping, Pong, DataChunk, UserProfile, SecureMessage, Comprehensive}
}
