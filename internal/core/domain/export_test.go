package domain

var PlatformFor = platformFor
