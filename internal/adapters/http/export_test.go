package http

var ChannelSubject = channelSubject
