package domain

const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

const (
	AttachmentTypeImage = "image"
	AttachmentTypeVideo = "video"
	AttachmentTypeFile  = "file"
)

const (
	NotifFriendRequest   = "FRIEND_REQUEST"
	NotifRequestAccepted = "REQUEST_ACCEPTED"
	NotifMessageRequest  = "MESSAGE_REQUEST"
	NotifNewMessage      = "NEW_MESSAGE"
	NotifForumPost       = "FORUM_POST"
	NotifPostComment     = "POST_COMMENT"
	NotifSOSSent         = "SOS_SENT"
)

const (
	MaxChildren        = 4
	MaxPostAttachments = 4
)
