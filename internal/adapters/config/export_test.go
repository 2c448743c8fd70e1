package config

var MergeMaps = mergeMaps
