package inventory

var JitteredBackoff = jitteredBackoff
