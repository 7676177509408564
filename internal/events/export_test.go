package events

var NewKafkaWriter = newKafkaWriter
